package task

import "github.com/crewhq/crew/internal/errors"

// edge is one must-complete-before relation: From blocks To.
type edge struct {
	From int
	To   int
}

// buildAdjacency folds every task's edge sets into one adjacency map,
// edges pointing from blocker to blocked. Blocks and BlockedBy are
// supposed to mirror each other; both sides are folded in so a document
// that lost one half of an edge still constrains validation.
func buildAdjacency(tasks map[int]Task) map[int][]int {
	adj := make(map[int][]int, len(tasks))
	for id, t := range tasks {
		for _, to := range t.Blocks {
			adj[id] = appendEdge(adj[id], to)
		}
		for _, from := range t.BlockedBy {
			adj[from] = appendEdge(adj[from], id)
		}
	}
	return adj
}

func appendEdge(targets []int, to int) []int {
	if containsID(targets, to) {
		return targets
	}
	return append(targets, to)
}

// reaches reports whether from can reach to by walking edges. BFS with an
// explicit queue; the graphs here are team-sized, so no visited-set tricks
// beyond a plain map.
func reaches(adj map[int][]int, from, to int) bool {
	if from == to {
		return true
	}
	visited := map[int]bool{from: true}
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if next == to {
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// checkAcyclic validates candidate edges against the current graph, one
// edge at a time in the order given. An edge From→To closes a loop exactly
// when To already reaches From; the first such edge is reported and
// nothing after it is considered. Accepted edges are added to adj, so a
// candidate set that is only cyclic in combination is still caught.
//
// A self-edge is a one-node loop and is rejected the same way.
func checkAcyclic(adj map[int][]int, candidates []edge) error {
	for _, e := range candidates {
		if reaches(adj, e.To, e.From) {
			return errors.NewCycleError(e.From, e.To)
		}
		adj[e.From] = appendEdge(adj[e.From], e.To)
	}
	return nil
}

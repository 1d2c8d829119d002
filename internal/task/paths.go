package task

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crewhq/crew/internal/docstore"
	"github.com/crewhq/crew/internal/errors"
)

const (
	tasksDirName    = "tasks"
	lockFileName    = ".lock"
	counterFileName = ".counter.json"
)

// Dir returns the task directory for a team under the store root.
func Dir(root, team string) string {
	return filepath.Join(root, tasksDirName, team)
}

// LockPath returns the team's task-graph lock marker. The lock covers the
// counter document and every task document in the directory.
func LockPath(root, team string) string {
	return filepath.Join(Dir(root, team), lockFileName)
}

func counterPath(root, team string) string {
	return filepath.Join(Dir(root, team), counterFileName)
}

func taskPath(root, team string, id int) string {
	return filepath.Join(Dir(root, team), strconv.Itoa(id)+".json")
}

// parseTaskID recovers a task id from a document file name. Names that are
// not "<positive int>.json" (the lock marker, the counter, temp files) are
// not task documents.
func parseTaskID(name string) (int, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(base)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// counterDoc allocates task ids. NextID is the next unused id; ids are
// handed out monotonically and never reused, even after deletion.
type counterDoc struct {
	NextID int `json:"nextId"`
}

// InitTeamDir scaffolds a team's task directory: the directory itself, the
// graph lock marker, and the id counter seeded to 1. The team registry
// calls this when a team is created.
func InitTeamDir(root, team string) error {
	if err := docstore.EnsureDir(Dir(root, team)); err != nil {
		return err
	}

	lockPath := LockPath(root, team)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewIOError("create", lockPath, err)
	}
	_ = f.Close()

	return docstore.WriteAtomic(counterPath(root, team), counterDoc{NextID: 1})
}

// RemoveTeamDir deletes a team's task directory and every document in it.
// Ids from the removed counter are gone with the team; a recreated team
// starts counting from 1 again.
func RemoveTeamDir(root, team string) error {
	if err := os.RemoveAll(Dir(root, team)); err != nil {
		return errors.NewIOError("remove", Dir(root, team), err)
	}
	return nil
}

// Package team is the registry of teams and their members.
//
// A team is one document, teams/<name>/config.json under the store root,
// holding the team's metadata and its ordered member list. Every mutation
// goes through the document store's locked read-modify-write cycle on that
// one path, so concurrent registrars (the server, spawned agents, CLI
// invocations) never lose each other's updates.
//
// # Architecture
//
// The central type is [Registry], which owns the layout under the root:
//
//   - [Registry.Create] writes a fresh config seeded with the reserved
//     team-lead member and scaffolds the team's task directory.
//   - [Registry.AddMember], [Registry.RemoveMember] and
//     [Registry.UpdateMember] edit the member list under the config lock.
//   - [Registry.Delete] refuses while any member is alive, then removes the
//     team directory and the task directory.
//
// Liveness is never determined here. Callers pass a [HealthProbe] sourced
// from the backend layer; with a nil probe the last stored statuses are
// trusted as-is.
//
// # Naming
//
// Team and member names share one rule: letters, digits, hyphens and
// underscores, at most 64 characters. The name "team-lead" is reserved for
// the member seeded at creation; it cannot be added or removed.
package team

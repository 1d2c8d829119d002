// Package roster orchestrates teammate lifecycles: spawning agent
// processes onto a team, probing their health, and taking them down
// again. It sits above the team registry, the task and mailbox
// engines, and the backend layer, and is the only place where store
// state and live processes meet.
//
// Every mutation keeps the store authoritative: a member exists in the
// team config before its process starts, and a process is gone before
// its member record is. When a spawn fails partway, the member is
// rolled back out so a retry starts clean.
package roster

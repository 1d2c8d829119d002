package mailbox

import (
	"path/filepath"

	"github.com/crewhq/crew/internal/team"
)

const (
	inboxesDirName = "inboxes"
	lockFileName   = ".lock"
)

// Dir returns the inboxes directory of a team.
func Dir(root, teamName string) string {
	return filepath.Join(team.Dir(root, teamName), inboxesDirName)
}

// InboxPath returns one member's mailbox document.
func InboxPath(root, teamName, agent string) string {
	return filepath.Join(Dir(root, teamName), agent+".json")
}

// LockPath returns the lock marker shared by every mailbox of the team.
func LockPath(root, teamName string) string {
	return filepath.Join(Dir(root, teamName), lockFileName)
}

package team

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/crewhq/crew/internal/errors"
)

// MemberStatus is a member's last-known liveness, sourced from an external
// health check. The registry stores it; it never probes processes itself.
type MemberStatus string

const (
	// StatusAlive indicates the member's process responded to the most
	// recent health check.
	StatusAlive MemberStatus = "alive"

	// StatusDead indicates the member's process is known to be gone.
	StatusDead MemberStatus = "dead"

	// StatusUnknown indicates no health check has run since the status was
	// last stored.
	StatusUnknown MemberStatus = "unknown"
)

// String returns the string representation of the status.
func (s MemberStatus) String() string {
	return string(s)
}

// IsValid returns true if this is a recognized status value.
func (s MemberStatus) IsValid() bool {
	switch s {
	case StatusAlive, StatusDead, StatusUnknown:
		return true
	default:
		return false
	}
}

// LeadName is the reserved member name seeded into every team at creation.
const LeadName = "team-lead"

// Member is one agent in a team's roster.
type Member struct {
	AgentID          string       `json:"agentId"`                    // "<name>@<team>"
	Name             string       `json:"name"`                       // Unique within the team
	Backend          string       `json:"backend"`                    // Backend identifier; empty for the lead
	Model            string       `json:"model"`                      // Model identifier
	Color            string       `json:"color,omitempty"`            // Display color; empty for the lead
	Status           MemberStatus `json:"status"`                     // Last-known liveness
	Prompt           string       `json:"prompt,omitempty"`           // Spawn prompt; empty for the lead
	ProcessHandle    string       `json:"processHandle,omitempty"`    // Backend process handle, e.g. a tmux pane or "pty:<pid>"
	JoinedAt         int64        `json:"joinedAt"`                   // Epoch milliseconds
	Cwd              string       `json:"cwd,omitempty"`              // Working directory the member was spawned in
	PlanModeRequired bool         `json:"planModeRequired,omitempty"` // Member must have plans approved before acting
}

// IsLead returns true for the reserved team-lead member.
func (m Member) IsLead() bool {
	return m.Name == LeadName
}

// Config is a team's persisted document.
type Config struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	CreatedAt     int64    `json:"createdAt"` // Epoch milliseconds
	LeadAgentID   string   `json:"leadAgentId"`
	LeadSessionID string   `json:"leadSessionId"`
	Members       []Member `json:"members"`
}

// Member returns the named member and whether it exists.
func (c Config) Member(name string) (Member, bool) {
	for _, m := range c.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// MemberNames returns the member names in roster order.
func (c Config) MemberNames() []string {
	names := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		names = append(names, m.Name)
	}
	return names
}

// AgentID builds the canonical member identifier "<name>@<team>".
func AgentID(name, team string) string {
	return name + "@" + team
}

const maxNameLen = 64

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName checks a team or member name against the naming rules:
// letters, digits, hyphens and underscores only, at most 64 characters.
// kind names the thing being validated ("team" or "agent") and appears in
// the returned error.
func ValidateName(kind, name string) error {
	if name == "" {
		return errors.NewInvalidNameError(kind, name, "name is empty")
	}
	if len(name) > maxNameLen {
		return errors.NewInvalidNameError(kind, name, fmt.Sprintf("name exceeds %d characters", maxNameLen))
	}
	if !namePattern.MatchString(name) {
		return errors.NewInvalidNameError(kind, name, "may only contain letters, digits, hyphens, and underscores")
	}
	return nil
}

const (
	teamsDirName   = "teams"
	configFileName = "config.json"
	lockFileName   = ".lock"
)

// Dir returns the team's directory under the store root. The config
// document, its lock marker, and the inboxes directory all live here.
func Dir(root, name string) string {
	return filepath.Join(root, teamsDirName, name)
}

// ConfigPath returns the team's config document path.
func ConfigPath(root, name string) string {
	return filepath.Join(Dir(root, name), configFileName)
}

// LockPath returns the config document's lock marker.
func LockPath(root, name string) string {
	return filepath.Join(Dir(root, name), lockFileName)
}

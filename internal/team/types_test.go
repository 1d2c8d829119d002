package team

import (
	"strings"
	"testing"

	"github.com/crewhq/crew/internal/errors"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "squad", wantErr: false},
		{name: "digits", input: "team2", wantErr: false},
		{name: "hyphen and underscore", input: "my-team_2", wantErr: false},
		{name: "max length", input: strings.Repeat("a", 64), wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 65), wantErr: true},
		{name: "space", input: "has space", wantErr: true},
		{name: "dot", input: "has.dot", wantErr: true},
		{name: "slash", input: "has/slash", wantErr: true},
		{name: "backslash", input: `has\back`, wantErr: true},
		{name: "traversal", input: "../escape", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("team", tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateName(%q) = nil, want error", tt.input)
				}
				if !errors.Is(err, errors.ErrInvalidName) {
					t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.input, err)
				}
			} else if err != nil {
				t.Errorf("ValidateName(%q) error = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestMemberStatusIsValid(t *testing.T) {
	for _, s := range []MemberStatus{StatusAlive, StatusDead, StatusUnknown} {
		if !s.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}
	if MemberStatus("sleeping").IsValid() {
		t.Error(`IsValid("sleeping") = true, want false`)
	}
}

func TestAgentID(t *testing.T) {
	if got, want := AgentID("coder", "squad"), "coder@squad"; got != want {
		t.Errorf("AgentID() = %q, want %q", got, want)
	}
	if got, want := AgentID(LeadName, "squad"), "team-lead@squad"; got != want {
		t.Errorf("AgentID() = %q, want %q", got, want)
	}
}

func TestConfigMember(t *testing.T) {
	cfg := Config{Members: []Member{
		{Name: "team-lead"},
		{Name: "coder"},
	}}

	m, ok := cfg.Member("coder")
	if !ok {
		t.Fatal("Member(coder) not found")
	}
	if m.Name != "coder" {
		t.Errorf("Name = %q, want %q", m.Name, "coder")
	}

	if _, ok := cfg.Member("ghost"); ok {
		t.Error("Member(ghost) found, want absent")
	}
}

func TestConfigMemberNames(t *testing.T) {
	cfg := Config{Members: []Member{
		{Name: "team-lead"},
		{Name: "coder"},
		{Name: "tester"},
	}}

	got := cfg.MemberNames()
	want := []string{"team-lead", "coder", "tester"}
	if len(got) != len(want) {
		t.Fatalf("MemberNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MemberNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemberIsLead(t *testing.T) {
	if !(Member{Name: LeadName}).IsLead() {
		t.Error("IsLead() = false for team-lead")
	}
	if (Member{Name: "coder"}).IsLead() {
		t.Error("IsLead() = true for regular member")
	}
}

func TestPathLayout(t *testing.T) {
	root := "/store"
	if got, want := Dir(root, "squad"), "/store/teams/squad"; got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
	if got, want := ConfigPath(root, "squad"), "/store/teams/squad/config.json"; got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
	if got, want := LockPath(root, "squad"), "/store/teams/squad/.lock"; got != want {
		t.Errorf("LockPath() = %q, want %q", got, want)
	}
}

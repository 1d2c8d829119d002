package team

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/task"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

func mustCreate(t *testing.T, r *Registry, name string, opts CreateOptions) Config {
	t.Helper()
	cfg, err := r.Create(context.Background(), name, opts)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return cfg
}

func TestNewRegistryRequiresRoot(t *testing.T) {
	if _, err := NewRegistry(""); err == nil {
		t.Fatal("NewRegistry(\"\") = nil error, want error")
	}
}

func TestCreateDirectoryStructure(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "alpha", CreateOptions{LeadSessionID: "sess-1"})

	if fi, err := os.Stat(Dir(r.Root(), "alpha")); err != nil || !fi.IsDir() {
		t.Errorf("team directory missing: %v", err)
	}
	if fi, err := os.Stat(task.Dir(r.Root(), "alpha")); err != nil || !fi.IsDir() {
		t.Errorf("task directory missing: %v", err)
	}
	if _, err := os.Stat(task.LockPath(r.Root(), "alpha")); err != nil {
		t.Errorf("task lock marker missing: %v", err)
	}

	// Inboxes appear lazily, on first send
	if _, err := os.Stat(filepath.Join(Dir(r.Root(), "alpha"), "inboxes")); !os.IsNotExist(err) {
		t.Error("inboxes directory should not exist after create")
	}
}

func TestCreateConfigSchema(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "beta", CreateOptions{LeadSessionID: "sess-42", Description: "test team"})

	raw, err := os.ReadFile(ConfigPath(r.Root(), "beta"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}

	if doc["name"] != "beta" {
		t.Errorf("name = %v, want beta", doc["name"])
	}
	if doc["description"] != "test team" {
		t.Errorf("description = %v, want %q", doc["description"], "test team")
	}
	if doc["leadSessionId"] != "sess-42" {
		t.Errorf("leadSessionId = %v, want sess-42", doc["leadSessionId"])
	}
	if doc["leadAgentId"] != "team-lead@beta" {
		t.Errorf("leadAgentId = %v, want team-lead@beta", doc["leadAgentId"])
	}
	if _, ok := doc["createdAt"].(float64); !ok {
		t.Errorf("createdAt = %v, want a number", doc["createdAt"])
	}
	members, ok := doc["members"].([]any)
	if !ok || len(members) != 1 {
		t.Fatalf("members = %v, want one entry", doc["members"])
	}
}

func TestCreateLeadMemberShape(t *testing.T) {
	r := newTestRegistry(t)
	cfg := mustCreate(t, r, "gamma", CreateOptions{LeadSessionID: "sess-7"})

	if len(cfg.Members) != 1 {
		t.Fatalf("len(Members) = %d, want 1", len(cfg.Members))
	}
	lead := cfg.Members[0]
	if lead.AgentID != "team-lead@gamma" {
		t.Errorf("AgentID = %q, want team-lead@gamma", lead.AgentID)
	}
	if lead.Name != LeadName {
		t.Errorf("Name = %q, want %q", lead.Name, LeadName)
	}
	if lead.Status != StatusUnknown {
		t.Errorf("Status = %q, want %q", lead.Status, StatusUnknown)
	}
	if lead.Color != "" || lead.Prompt != "" || lead.ProcessHandle != "" {
		t.Errorf("lead should have no color, prompt, or handle: %+v", lead)
	}
	if lead.JoinedAt == 0 {
		t.Error("JoinedAt not set")
	}
}

func TestCreateGeneratesSessionID(t *testing.T) {
	r := newTestRegistry(t)
	cfg := mustCreate(t, r, "auto", CreateOptions{})

	if cfg.LeadSessionID == "" {
		t.Error("LeadSessionID should be generated when not supplied")
	}
}

func TestCreateRejectsInvalidNames(t *testing.T) {
	r := newTestRegistry(t)
	for _, bad := range []string{"has space", "has.dot", "has/slash", `has\back`, strings.Repeat("a", 65)} {
		_, err := r.Create(context.Background(), bad, CreateOptions{})
		if !errors.Is(err, errors.ErrInvalidName) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidName", bad, err)
		}
	}
}

func TestCreateAcceptsMaxLengthName(t *testing.T) {
	r := newTestRegistry(t)
	name := strings.Repeat("a", 64)
	cfg := mustCreate(t, r, name, CreateOptions{})
	if cfg.Name != name {
		t.Errorf("Name = %q, want %q", cfg.Name, name)
	}
}

func TestCreateDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "dup", CreateOptions{})

	_, err := r.Create(context.Background(), "dup", CreateOptions{})
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Fatalf("second Create() error = %v, want ErrAlreadyExists", err)
	}
	var exErr *errors.AlreadyExistsError
	if !errors.As(err, &exErr) {
		t.Fatalf("error %v is not *AlreadyExistsError", err)
	}
	if exErr.Resource != "team" || exErr.Name != "dup" {
		t.Errorf("AlreadyExistsError = %+v, want team/dup", exErr)
	}
}

func TestDeleteRemovesDirectories(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "doomed", CreateOptions{})

	if err := r.Delete(context.Background(), "doomed", nil); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(Dir(r.Root(), "doomed")); !os.IsNotExist(err) {
		t.Error("team directory should be gone")
	}
	if _, err := os.Stat(task.Dir(r.Root(), "doomed")); !os.IsNotExist(err) {
		t.Error("task directory should be gone")
	}
}

func TestDeleteMissing(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Delete(context.Background(), "ghost", nil)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Delete(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBlockedByAliveMember(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "busy", CreateOptions{})
	if _, err := r.AddMember(ctx, "busy", Member{Name: "worker", Status: StatusAlive}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	err := r.Delete(ctx, "busy", nil)
	if !errors.Is(err, errors.ErrTeammatesActive) {
		t.Fatalf("Delete() error = %v, want ErrTeammatesActive", err)
	}
	var taErr *errors.TeammatesActiveError
	if !errors.As(err, &taErr) {
		t.Fatalf("error %v is not *TeammatesActiveError", err)
	}
	if len(taErr.Alive) != 1 || taErr.Alive[0] != "worker" {
		t.Errorf("Alive = %v, want [worker]", taErr.Alive)
	}

	// Marking the member dead clears the way
	_, err = r.UpdateMember(ctx, "busy", "worker", func(m Member) (Member, error) {
		m.Status = StatusDead
		return m, nil
	})
	if err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}
	if err := r.Delete(ctx, "busy", nil); err != nil {
		t.Fatalf("Delete() after member died error = %v", err)
	}
}

func TestDeleteProbeOverridesStoredStatus(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "probed", CreateOptions{})
	if _, err := r.AddMember(ctx, "probed", Member{Name: "worker", Status: StatusAlive}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	// Stored status says alive; a probe that reports everyone dead wins.
	probe := func(m Member) MemberStatus { return StatusDead }
	if err := r.Delete(ctx, "probed", probe); err != nil {
		t.Fatalf("Delete() with all-dead probe error = %v", err)
	}
}

func TestDeleteProbeDetectsLiveProcess(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "lively", CreateOptions{})
	if _, err := r.AddMember(ctx, "lively", Member{Name: "worker", Status: StatusDead}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	probe := func(m Member) MemberStatus {
		if m.Name == "worker" {
			return StatusAlive
		}
		return StatusDead
	}
	err := r.Delete(ctx, "lively", probe)
	if !errors.Is(err, errors.ErrTeammatesActive) {
		t.Errorf("Delete() error = %v, want ErrTeammatesActive from probe", err)
	}
}

func TestReadConfigRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "roundtrip", CreateOptions{LeadSessionID: "sess-99", Description: "rt test"})

	cfg, err := r.ReadConfig("roundtrip")
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if cfg.Name != "roundtrip" {
		t.Errorf("Name = %q, want roundtrip", cfg.Name)
	}
	if cfg.Description != "rt test" {
		t.Errorf("Description = %q, want %q", cfg.Description, "rt test")
	}
	if cfg.LeadSessionID != "sess-99" {
		t.Errorf("LeadSessionID = %q, want sess-99", cfg.LeadSessionID)
	}
	if cfg.LeadAgentID != "team-lead@roundtrip" {
		t.Errorf("LeadAgentID = %q, want team-lead@roundtrip", cfg.LeadAgentID)
	}
}

func TestReadConfigMissing(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.ReadConfig("ghost")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("ReadConfig(ghost) error = %v, want ErrNotFound", err)
	}
	var nfErr *errors.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error %v is not *NotFoundError", err)
	}
	if nfErr.Resource != "team" || nfErr.Name != "ghost" {
		t.Errorf("NotFoundError = %+v, want team/ghost", nfErr)
	}
}

func TestExists(t *testing.T) {
	r := newTestRegistry(t)

	ok, err := r.Exists("later")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists() = true before create")
	}

	mustCreate(t, r, "later", CreateOptions{})
	ok, err = r.Exists("later")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false after create")
	}
}

func TestList(t *testing.T) {
	r := newTestRegistry(t)

	names, err := r.List()
	if err != nil {
		t.Fatalf("List() on empty root error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}

	mustCreate(t, r, "zeta", CreateOptions{})
	mustCreate(t, r, "alpha", CreateOptions{})

	names, err = r.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"alpha", "zeta"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("List() = %v, want %v", names, want)
	}
}

func TestAddMember(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "squad", CreateOptions{})

	cfg, err := r.AddMember(ctx, "squad", Member{
		Name:    "coder",
		Backend: "claude-code",
		Model:   "balanced",
		Color:   "blue",
		Prompt:  "Do stuff",
	})
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if len(cfg.Members) != 2 {
		t.Fatalf("len(Members) = %d, want 2", len(cfg.Members))
	}
	m := cfg.Members[1]
	if m.Name != "coder" {
		t.Errorf("Name = %q, want coder", m.Name)
	}
	if m.AgentID != "coder@squad" {
		t.Errorf("AgentID = %q, want coder@squad (defaulted)", m.AgentID)
	}
	if m.Status != StatusUnknown {
		t.Errorf("Status = %q, want %q (defaulted)", m.Status, StatusUnknown)
	}
	if m.JoinedAt == 0 {
		t.Error("JoinedAt not defaulted")
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "dup", CreateOptions{})

	if _, err := r.AddMember(ctx, "dup", Member{Name: "worker"}); err != nil {
		t.Fatalf("first AddMember() error = %v", err)
	}
	_, err := r.AddMember(ctx, "dup", Member{Name: "worker"})
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("duplicate AddMember() error = %v, want ErrAlreadyExists", err)
	}
}

func TestAddMemberReservedName(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "guarded", CreateOptions{})

	_, err := r.AddMember(context.Background(), "guarded", Member{Name: LeadName})
	if !errors.Is(err, errors.ErrInvalidName) {
		t.Errorf("AddMember(team-lead) error = %v, want ErrInvalidName", err)
	}
}

func TestAddMemberUnknownTeam(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddMember(context.Background(), "ghost", Member{Name: "worker"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("AddMember() on unknown team error = %v, want ErrNotFound", err)
	}
}

func TestRemoveMember(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "squad2", CreateOptions{})
	if _, err := r.AddMember(ctx, "squad2", Member{Name: "temp"}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	cfg, err := r.RemoveMember(ctx, "squad2", "temp")
	if err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if len(cfg.Members) != 1 {
		t.Fatalf("len(Members) = %d, want 1", len(cfg.Members))
	}
	if cfg.Members[0].Name != LeadName {
		t.Errorf("remaining member = %q, want %q", cfg.Members[0].Name, LeadName)
	}
}

func TestRemoveMemberAllowsReuse(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "reuse", CreateOptions{})

	if _, err := r.AddMember(ctx, "reuse", Member{Name: "worker"}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if _, err := r.RemoveMember(ctx, "reuse", "worker"); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	cfg, err := r.AddMember(ctx, "reuse", Member{Name: "worker"})
	if err != nil {
		t.Fatalf("AddMember() after removal error = %v", err)
	}
	if _, ok := cfg.Member("worker"); !ok {
		t.Error("re-added member missing from roster")
	}
}

func TestRemoveMemberRefusesLead(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "guarded2", CreateOptions{})

	_, err := r.RemoveMember(context.Background(), "guarded2", LeadName)
	if !errors.Is(err, errors.ErrInvalidName) {
		t.Errorf("RemoveMember(team-lead) error = %v, want ErrInvalidName", err)
	}
}

func TestRemoveMemberMissing(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "sparse", CreateOptions{})

	_, err := r.RemoveMember(context.Background(), "sparse", "ghost")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("RemoveMember(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateMember(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "squad3", CreateOptions{})
	if _, err := r.AddMember(ctx, "squad3", Member{Name: "worker"}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	got, err := r.UpdateMember(ctx, "squad3", "worker", func(m Member) (Member, error) {
		m.Status = StatusAlive
		m.ProcessHandle = "%5"
		return m, nil
	})
	if err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}
	if got.Status != StatusAlive || got.ProcessHandle != "%5" {
		t.Errorf("updated member = %+v, want alive/%%5", got)
	}

	// Persisted
	cfg, err := r.ReadConfig("squad3")
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	m, _ := cfg.Member("worker")
	if m.Status != StatusAlive || m.ProcessHandle != "%5" {
		t.Errorf("stored member = %+v, want alive/%%5", m)
	}
}

func TestUpdateMemberRejectsRename(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "squad4", CreateOptions{})
	if _, err := r.AddMember(ctx, "squad4", Member{Name: "worker"}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	_, err := r.UpdateMember(ctx, "squad4", "worker", func(m Member) (Member, error) {
		m.Name = "renamed"
		return m, nil
	})
	if !errors.Is(err, errors.ErrInvalidName) {
		t.Errorf("UpdateMember() rename error = %v, want ErrInvalidName", err)
	}
}

func TestUpdateMemberTransformError(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, "squad5", CreateOptions{})
	if _, err := r.AddMember(ctx, "squad5", Member{Name: "worker"}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	sentinel := errors.New("refuse")
	_, err := r.UpdateMember(ctx, "squad5", "worker", func(m Member) (Member, error) {
		m.Status = StatusDead
		return m, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("UpdateMember() error = %v, want transform error", err)
	}

	cfg, err := r.ReadConfig("squad5")
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	m, _ := cfg.Member("worker")
	if m.Status != StatusUnknown {
		t.Errorf("Status = %q, want unchanged %q", m.Status, StatusUnknown)
	}
}

func TestUpdateMemberMissing(t *testing.T) {
	r := newTestRegistry(t)
	mustCreate(t, r, "squad6", CreateOptions{})

	_, err := r.UpdateMember(context.Background(), "squad6", "ghost", func(m Member) (Member, error) {
		return m, nil
	})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateMember(ghost) error = %v, want ErrNotFound", err)
	}
}

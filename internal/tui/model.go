// Package tui implements the live team dashboard: a read-only terminal
// view of one team's roster, task board, and recent mailbox traffic.
// The dashboard owns no state; it re-reads the store's files on a tick
// and whenever they change, so it tracks agents working in other
// processes.
package tui

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewhq/crew/internal/mailbox"
	"github.com/crewhq/crew/internal/roster"
	"github.com/crewhq/crew/internal/task"
	"github.com/crewhq/crew/internal/team"
)

const (
	// refreshInterval paces the fallback poll; file events usually
	// refresh sooner.
	refreshInterval = 2 * time.Second

	// maxTraffic bounds how many recent messages the dashboard shows.
	maxTraffic = 8

	defaultWidth       = 80
	defaultTableHeight = 8
)

// trafficEntry is one mailbox message tagged with the inbox it was
// read from.
type trafficEntry struct {
	To      string
	Message mailbox.Message
}

// snapshot is one read of the team's files. Each part is read under its
// own lock, so a snapshot can interleave with concurrent writers; the
// next refresh converges.
type snapshot struct {
	cfg     team.Config
	tasks   []task.Task
	traffic []trafficEntry
}

type (
	tickMsg         time.Time
	storeChangedMsg struct{}
	refreshMsg      struct {
		snap snapshot
		err  error
	}
)

// Model holds the dashboard state.
type Model struct {
	engine   *roster.Engine
	teamName string

	snap      snapshot
	taskTable table.Model

	width    int
	height   int
	ready    bool
	quitting bool
	err      error
}

// NewModel creates a dashboard model for one team.
func NewModel(engine *roster.Engine, teamName string) Model {
	t := table.New(
		table.WithColumns(taskColumns(defaultWidth)),
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		Foreground(mutedColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true)
	s.Selected = s.Selected.
		Foreground(textColor).
		Background(surfaceColor)
	t.SetStyles(s)

	return Model{
		engine:    engine,
		teamName:  teamName,
		taskTable: t,
	}
}

// Init starts the first refresh and the refresh tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.taskTable.SetColumns(taskColumns(msg.Width))
		m.taskTable.SetHeight(m.tableHeight())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case storeChangedMsg:
		return m, m.refreshCmd()

	case refreshMsg:
		if msg.err != nil {
			// Keep the last good snapshot on screen; the error renders
			// alongside it.
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.snap = msg.snap
		m.taskTable.SetRows(taskRows(msg.snap.tasks))
		m.taskTable.SetHeight(m.tableHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.taskTable, cmd = m.taskTable.Update(msg)
	return m, cmd
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd re-reads the store off the update loop.
func (m Model) refreshCmd() tea.Cmd {
	engine, teamName := m.engine, m.teamName
	return func() tea.Msg {
		snap, err := collect(engine, teamName)
		return refreshMsg{snap: snap, err: err}
	}
}

// collect reads the roster, the task board, and every member's mailbox.
func collect(engine *roster.Engine, teamName string) (snapshot, error) {
	cfg, err := engine.Teams().ReadConfig(teamName)
	if err != nil {
		return snapshot{}, err
	}
	tasks, err := engine.Tasks().List(teamName)
	if err != nil {
		return snapshot{}, err
	}

	ctx := context.Background()
	var traffic []trafficEntry
	for _, member := range cfg.Members {
		msgs, err := engine.Mail().Read(ctx, teamName, member.Name, mailbox.ReadOptions{})
		if err != nil {
			// A briefly locked or missing inbox should not blank the view
			continue
		}
		for _, msg := range msgs {
			traffic = append(traffic, trafficEntry{To: member.Name, Message: msg})
		}
	}
	// Timestamps are fixed-width UTC ISO 8601, so string order is time
	// order.
	sort.Slice(traffic, func(i, j int) bool {
		return traffic[i].Message.Timestamp > traffic[j].Message.Timestamp
	})
	if len(traffic) > maxTraffic {
		traffic = traffic[:maxTraffic]
	}

	return snapshot{cfg: cfg, tasks: tasks, traffic: traffic}, nil
}

func taskColumns(width int) []table.Column {
	title := width - 4 - 11 - 14 - 8
	if title < 20 {
		title = 20
	}
	return []table.Column{
		{Title: "ID", Width: 4},
		{Title: "STATUS", Width: 11},
		{Title: "OWNER", Width: 14},
		{Title: "TITLE", Width: title},
	}
}

func taskRows(tasks []task.Task) []table.Row {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		owner := t.Owner
		if owner == "" {
			owner = "-"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(t.ID),
			string(t.Status),
			owner,
			t.Title,
		})
	}
	return rows
}

// tableHeight fits the task table into whatever the other sections
// leave over.
func (m Model) tableHeight() int {
	if m.height == 0 {
		return defaultTableHeight
	}
	reserved := 9 + len(m.snap.cfg.Members) + len(m.snap.traffic)
	return max(m.height-reserved, 3)
}

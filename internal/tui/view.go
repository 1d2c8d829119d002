package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/util"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("crew · " + m.teamName))
	if m.snap.cfg.Description != "" {
		b.WriteString("  ")
		b.WriteString(subtitleStyle.Render(util.TruncateString(m.snap.cfg.Description, max(m.width-len(m.teamName)-10, 10))))
	}
	b.WriteString("\n\n")

	m.renderRoster(&b)
	m.renderTasks(&b)
	m.renderTraffic(&b)

	if m.err != nil {
		b.WriteString(errorStyle.Render(util.TruncateString("store unreadable: "+m.err.Error(), max(m.width-2, 20))))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("refreshes on file changes · "))
	b.WriteString(helpKeyStyle.Render("q"))
	b.WriteString(mutedStyle.Render(" quit"))

	return b.String()
}

func (m Model) renderRoster(b *strings.Builder) {
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Roster (%d)", len(m.snap.cfg.Members))))
	b.WriteString("\n")
	for _, member := range m.snap.cfg.Members {
		b.WriteString("  ")
		b.WriteString(statusDot(member.Status))
		b.WriteString(" ")
		b.WriteString(memberStyle(member.Color).Render(member.Name))
		if member.IsLead() {
			b.WriteString(mutedStyle.Render(" (lead)"))
		}
		if member.Model != "" {
			b.WriteString(mutedStyle.Render("  " + member.Model))
		}
		if ago := util.FormatTimeAgo(time.UnixMilli(member.JoinedAt)); ago != "" && member.JoinedAt > 0 {
			b.WriteString(mutedStyle.Render("  joined " + ago))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) renderTasks(b *strings.Builder) {
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Tasks (%d)", len(m.snap.tasks))))
	b.WriteString("\n")
	if len(m.snap.tasks) == 0 {
		b.WriteString(mutedStyle.Render("  No tasks"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.taskTable.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) renderTraffic(b *strings.Builder) {
	b.WriteString(sectionStyle.Render("Recent messages"))
	b.WriteString("\n")
	if len(m.snap.traffic) == 0 {
		b.WriteString(mutedStyle.Render("  No messages"))
		b.WriteString("\n")
	}
	for _, entry := range m.snap.traffic {
		b.WriteString("  ")
		if clock := clockTime(entry.Message.Timestamp); clock != "" {
			b.WriteString(mutedStyle.Render(clock))
			b.WriteString(" ")
		}
		b.WriteString(memberStyle(entry.Message.Color).Render(entry.Message.From + " → " + entry.To))
		preview := util.Preview(entry.Message.Text, max(m.width-40, 20))
		if preview != "" {
			b.WriteString(mutedStyle.Render("  " + preview))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// clockTime renders a mailbox timestamp as local wall-clock time.
func clockTime(ts string) string {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", ts)
	if err != nil {
		return ""
	}
	return t.Local().Format("15:04:05")
}

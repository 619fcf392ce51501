package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/crosstalk-io/crosstalk/internal/event"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	borderColor  = lipgloss.Color("#6B7280") // Gray
	textColor    = lipgloss.Color("#F9FAFB") // Light text

	// Lamp colors per activity
	thinkingColor  = lipgloss.Color("#FBBF24") // Yellow
	talkingColor   = lipgloss.Color("#10B981") // Green
	listeningColor = lipgloss.Color("#60A5FA") // Blue

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	rosterHeaderStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	holderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	rowStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	lampOff = lipgloss.NewStyle().
		Foreground(mutedColor).
		Render("○")

	transcriptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(talkingColor)

	speakerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	floorStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	collisionStyle = lipgloss.NewStyle().
			Foreground(thinkingColor)
)

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("crosstalk"))
	b.WriteString("\n\n")
	b.WriteString(m.renderRoster())
	b.WriteString("\n")
	b.WriteString(transcriptStyle.Render(m.transcript.View()))
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

const (
	// Lamps are styled separately; splitting the row around them keeps the
	// ANSI sequences out of the padded fields.
	rosterLeftFormat  = "%-8s %-6s"
	rosterRightFormat = "%7s %7s %7s %7s %5s %5s %5s"
)

// renderRoster renders the per-agent status table.
func (m Model) renderRoster() string {
	now := time.Now()

	header := fmt.Sprintf(rosterLeftFormat, "AGENT", "FLOOR") + " T T L " +
		fmt.Sprintf(rosterRightFormat, "SENT", "RECV", "GEN", "GRANTS", "INT+", "INT-", "COLL")

	lines := make([]string, 0, len(m.agents)+1)
	lines = append(lines, rosterHeaderStyle.Render(header))

	for _, id := range m.agents {
		row := m.rows[id]
		floor := "-"
		style := rowStyle
		if row.holding {
			floor = "held"
			style = holderStyle
		}
		lamps := strings.Join([]string{
			lamp(row.lamps[event.ActivityThinking], thinkingColor),
			lamp(row.lamps[event.ActivityTalking], talkingColor),
			lamp(row.lamps[event.ActivityListening], listeningColor),
		}, " ")
		left := style.Render(fmt.Sprintf(rosterLeftFormat, string(id), floor))
		right := style.Render(fmt.Sprintf(rosterRightFormat,
			rate(row.sent.Rate(now)),
			rate(row.received.Rate(now)),
			rate(row.generated.Rate(now)),
			fmt.Sprintf("%d", row.grants),
			fmt.Sprintf("%d", row.interruptsMade),
			fmt.Sprintf("%d", row.interruptsSuffered),
			fmt.Sprintf("%d", row.collisionsLost),
		))
		lines = append(lines, left+" "+lamps+" "+right)
	}
	return strings.Join(lines, "\n")
}

func lamp(on bool, color lipgloss.Color) string {
	if !on {
		return lampOff
	}
	return lipgloss.NewStyle().Foreground(color).Render("●")
}

func rate(perSecond float64) string {
	return fmt.Sprintf("%.1f/s", perSecond)
}

func (m Model) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"q", "quit"},
		{"c", "clear"},
		{"↑/↓", "scroll"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = helpKeyStyle.Render(k.key) + helpStyle.Render(" "+k.desc)
	}
	return helpStyle.Render(strings.Join(parts, "  ·  "))
}

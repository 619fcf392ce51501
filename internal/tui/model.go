package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
)

// rateWindowSpan is the sliding window over which message rates are computed.
const rateWindowSpan = 2 * time.Second

// maxTranscriptLines bounds transcript memory on long runs.
const maxTranscriptLines = 500

// agentRow accumulates one agent's dashboard state from bus events.
type agentRow struct {
	holding bool
	lamps   map[event.Activity]bool

	sent      *rateWindow
	received  *rateWindow
	generated *rateWindow

	grants             int
	interruptsMade     int
	interruptsSuffered int
	collisionsLost     int
}

func newAgentRow() *agentRow {
	return &agentRow{
		lamps:     make(map[event.Activity]bool),
		sent:      newRateWindow(rateWindowSpan),
		received:  newRateWindow(rateWindowSpan),
		generated: newRateWindow(rateWindowSpan),
	}
}

// rateWindow computes events-per-second over a sliding span.
type rateWindow struct {
	span  time.Duration
	times []time.Time
}

func newRateWindow(span time.Duration) *rateWindow {
	return &rateWindow{span: span}
}

func (w *rateWindow) Add(t time.Time) {
	w.times = append(w.times, t)
}

// Rate prunes entries older than the span and returns events per second.
func (w *rateWindow) Rate(now time.Time) float64 {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.times) && w.times[i].Before(cutoff) {
		i++
	}
	w.times = w.times[i:]
	return float64(len(w.times)) / w.span.Seconds()
}

// Model is the dashboard state. All mutation happens on the Bubbletea update
// loop; bus events arrive as busEventMsg.
type Model struct {
	agents []agent.ID
	rows   map[agent.ID]*agentRow

	transcript viewport.Model
	lines      []string

	width  int
	height int
	ready  bool

	quitting bool
}

// NewModel creates the dashboard model for a fixed agent roster.
func NewModel(agents []agent.ID) Model {
	rows := make(map[agent.ID]*agentRow, len(agents))
	for _, id := range agents {
		rows[id] = newAgentRow()
	}
	return Model{
		agents: agents,
		rows:   rows,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth, contentHeight := m.transcriptDimensions()
		if !m.ready {
			m.transcript = viewport.New(contentWidth, contentHeight)
			m.transcript.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.transcript.Width = contentWidth
			m.transcript.Height = contentHeight
		}
		return m, nil

	case tickMsg:
		// Rates decay over time; redraw even when no events arrive.
		return m, tick()

	case busEventMsg:
		m.apply(msg.event)
		return m, nil
	}

	return m, nil
}

// handleKeypress processes keyboard input
func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "c":
		m.lines = nil
		if m.ready {
			m.transcript.SetContent("")
			m.transcript.GotoTop()
		}
		return m, nil
	}

	// Arrow and page keys scroll the transcript.
	if m.ready {
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply folds one bus event into the roster and transcript.
func (m *Model) apply(e event.Event) {
	switch ev := e.(type) {
	case event.StatusEvent:
		row := m.rows[agent.ID(ev.AgentID)]
		if row == nil {
			return
		}
		switch ev.Status {
		case event.StatusOn:
			row.lamps[ev.Activity] = true
		case event.StatusOff:
			row.lamps[ev.Activity] = false
		case event.StatusMessageSent:
			row.sent.Add(ev.Timestamp())
		case event.StatusMessageReceived:
			row.received.Add(ev.Timestamp())
		case event.StatusMessageGenerated:
			row.generated.Add(ev.Timestamp())
		}

	case event.FloorGrantedEvent:
		row := m.rows[agent.ID(ev.AgentID)]
		if row == nil {
			return
		}
		row.holding = true
		row.grants++
		if ev.Interrupt {
			row.interruptsMade++
			m.appendLine(floorStyle.Render(fmt.Sprintf("%s takes the floor (interrupting)", ev.AgentID)))
		} else {
			m.appendLine(floorStyle.Render(fmt.Sprintf("%s takes the floor", ev.AgentID)))
		}

	case event.FloorReleasedEvent:
		row := m.rows[agent.ID(ev.AgentID)]
		if row == nil {
			return
		}
		row.holding = false
		if ev.Reason == "interrupted" {
			row.interruptsSuffered++
		}
		m.appendLine(floorStyle.Render(fmt.Sprintf("%s yields the floor (%s)", ev.AgentID, ev.Reason)))

	case event.FloorCollisionEvent:
		if row := m.rows[agent.ID(ev.Loser)]; row != nil {
			row.collisionsLost++
		}
		m.appendLine(collisionStyle.Render(fmt.Sprintf("collision: %s over %s", ev.Winner, ev.Loser)))

	case event.MessageEvent:
		m.appendLine(fmt.Sprintf("%s %s",
			speakerStyle.Render(fmt.Sprintf("%s → %s #%d", ev.From, ev.To, ev.Seq)),
			ev.Text))
	}
}

// appendLine adds a transcript line, trimming the backlog and keeping the
// viewport pinned to the bottom.
func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxTranscriptLines {
		m.lines = m.lines[len(m.lines)-maxTranscriptLines:]
	}
	if m.ready {
		atBottom := m.transcript.AtBottom()
		m.transcript.SetContent(strings.Join(m.lines, "\n"))
		if atBottom {
			m.transcript.GotoBottom()
		}
	}
}

// transcriptDimensions returns the viewport size given the current terminal:
// full width minus the border, height minus header, roster, and help bar.
func (m Model) transcriptDimensions() (width, height int) {
	width = m.width - 2
	if width < 10 {
		width = 10
	}
	height = m.height - m.rosterHeight() - 5
	if height < 3 {
		height = 3
	}
	return width, height
}

// rosterHeight is the header line plus one row per agent.
func (m Model) rosterHeight() int {
	return len(m.agents) + 1
}

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
)

func testAgents() []agent.ID {
	return []agent.ID{"P1", "P2"}
}

// feed applies a bus event to the model the same way Update would.
func feed(t *testing.T, m Model, e event.Event) Model {
	t.Helper()
	next, _ := m.Update(busEventMsg{event: e})
	return next.(Model)
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestModel_StatusEventTogglesLamps(t *testing.T) {
	m := NewModel(testAgents())

	m = feed(t, m, event.NewStatusEvent("P1", event.ActivityThinking, event.StatusOn))
	if !m.rows["P1"].lamps[event.ActivityThinking] {
		t.Error("thinking lamp should be on")
	}

	m = feed(t, m, event.NewStatusEvent("P1", event.ActivityThinking, event.StatusOff))
	if m.rows["P1"].lamps[event.ActivityThinking] {
		t.Error("thinking lamp should be off")
	}
}

func TestModel_MessageMarkersFeedRates(t *testing.T) {
	m := NewModel(testAgents())

	for i := 0; i < 4; i++ {
		m = feed(t, m, event.NewStatusEvent("P1", event.ActivityTalking, event.StatusMessageSent))
	}
	m = feed(t, m, event.NewStatusEvent("P2", event.ActivityListening, event.StatusMessageReceived))

	now := time.Now()
	if got := m.rows["P1"].sent.Rate(now); got != 2.0 {
		t.Errorf("sent rate = %v, want 2.0 (4 events over 2s window)", got)
	}
	if got := m.rows["P2"].received.Rate(now); got != 0.5 {
		t.Errorf("received rate = %v, want 0.5", got)
	}
}

func TestRateWindow_PrunesOldEntries(t *testing.T) {
	w := newRateWindow(2 * time.Second)
	now := time.Now()
	w.Add(now.Add(-3 * time.Second))
	w.Add(now.Add(-time.Second))
	w.Add(now)

	if got := w.Rate(now); got != 1.0 {
		t.Errorf("Rate() = %v, want 1.0 (2 live entries over 2s)", got)
	}
	if len(w.times) != 2 {
		t.Errorf("window holds %d entries after prune, want 2", len(w.times))
	}
}

func TestModel_FloorEventsTrackHolderAndCounters(t *testing.T) {
	m := NewModel(testAgents())

	m = feed(t, m, event.NewFloorGrantedEvent("P1", false, time.Now().Add(time.Second)))
	if !m.rows["P1"].holding {
		t.Error("P1 should hold the floor")
	}
	if m.rows["P1"].grants != 1 {
		t.Errorf("grants = %d, want 1", m.rows["P1"].grants)
	}

	// P2 interrupts: P1 loses the floor, P2 takes it.
	m = feed(t, m, event.NewFloorReleasedEvent("P1", "interrupted"))
	m = feed(t, m, event.NewFloorGrantedEvent("P2", true, time.Now().Add(time.Second)))

	if m.rows["P1"].holding {
		t.Error("P1 should no longer hold the floor")
	}
	if m.rows["P1"].interruptsSuffered != 1 {
		t.Errorf("P1 interruptsSuffered = %d, want 1", m.rows["P1"].interruptsSuffered)
	}
	if !m.rows["P2"].holding {
		t.Error("P2 should hold the floor")
	}
	if m.rows["P2"].interruptsMade != 1 {
		t.Errorf("P2 interruptsMade = %d, want 1", m.rows["P2"].interruptsMade)
	}
}

func TestModel_CollisionCountsLoser(t *testing.T) {
	m := NewModel(testAgents())
	m = feed(t, m, event.NewFloorCollisionEvent("P2", "P1"))

	if m.rows["P1"].collisionsLost != 1 {
		t.Errorf("P1 collisionsLost = %d, want 1", m.rows["P1"].collisionsLost)
	}
	if m.rows["P2"].collisionsLost != 0 {
		t.Errorf("P2 collisionsLost = %d, want 0", m.rows["P2"].collisionsLost)
	}
}

func TestModel_UnknownAgentEventsIgnored(t *testing.T) {
	m := NewModel(testAgents())
	m = feed(t, m, event.NewStatusEvent("P9", event.ActivityTalking, event.StatusOn))
	m = feed(t, m, event.NewFloorGrantedEvent("P9", false, time.Now()))
	// No panic and roster untouched.
	if m.rows["P1"].holding || m.rows["P2"].holding {
		t.Error("roster should be untouched by unknown agent events")
	}
}

func TestModel_MessagesAppendToTranscript(t *testing.T) {
	m := sized(t, NewModel(testAgents()))

	m = feed(t, m, event.NewMessageEvent("P1", "P2", 1, "sure, but have you considered the schedule"))
	if len(m.lines) != 1 {
		t.Fatalf("transcript has %d lines, want 1", len(m.lines))
	}
	if !strings.Contains(m.lines[0], "sure, but have you considered the schedule") {
		t.Errorf("transcript line missing message text: %q", m.lines[0])
	}
}

func TestModel_TranscriptBounded(t *testing.T) {
	m := NewModel(testAgents())
	for i := 0; i < maxTranscriptLines+50; i++ {
		m = feed(t, m, event.NewMessageEvent("P1", "P2", uint64(i), "tick"))
	}
	if len(m.lines) != maxTranscriptLines {
		t.Errorf("transcript has %d lines, want %d", len(m.lines), maxTranscriptLines)
	}
}

func TestModel_ClearKeyEmptiesTranscript(t *testing.T) {
	m := sized(t, NewModel(testAgents()))
	m = feed(t, m, event.NewMessageEvent("P1", "P2", 1, "soon gone"))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = next.(Model)
	if len(m.lines) != 0 {
		t.Errorf("transcript has %d lines after clear, want 0", len(m.lines))
	}
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		m := NewModel(testAgents())
		next, cmd := m.Update(key)
		if !next.(Model).quitting {
			t.Errorf("key %q should set quitting", key.String())
		}
		if cmd == nil {
			t.Errorf("key %q should return tea.Quit", key.String())
		}
	}
}

func TestModel_ViewRendersRoster(t *testing.T) {
	m := sized(t, NewModel(testAgents()))
	m = feed(t, m, event.NewFloorGrantedEvent("P1", false, time.Now().Add(time.Second)))

	view := m.View()
	for _, want := range []string{"crosstalk", "P1", "P2", "held", "AGENT"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

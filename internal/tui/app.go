// Package tui renders the conversation dashboard: a roster row per agent with
// activity lamps, message rates, and floor counters, above a scrolling
// transcript. The dashboard is a pure event consumer; the conversation runs
// identically headless.
package tui

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
}

// New creates a dashboard for the given agents fed by bus.
func New(bus *event.Bus, agents []agent.ID) *App {
	return &App{
		model: NewModel(agents),
		bus:   bus,
	}
}

// Run starts the dashboard and blocks until the user quits or the process
// receives SIGINT/SIGTERM.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Forward bus events into the program. Send is safe from the publisher's
	// goroutine and queues until Run drains.
	subID := a.bus.SubscribeAll(func(e event.Event) {
		a.program.Send(busEventMsg{event: e})
	})
	defer a.bus.Unsubscribe(subID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		if a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	_, err := a.program.Run()

	signal.Stop(sigChan)

	return err
}

// refreshInterval drives rate recomputation; the sliding message-rate windows
// decay even when no events arrive.
const refreshInterval = 250 * time.Millisecond

// Messages

type tickMsg time.Time

type busEventMsg struct {
	event event.Event
}

// Commands

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

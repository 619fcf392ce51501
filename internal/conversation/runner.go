// Package conversation assembles agents into a running simulation: one
// fabric, a pair of links per agent pair, and four workers per agent
// (controller driver, thinking loop, transmitter, receiver), all supervised
// until the run context ends.
package conversation

import (
	"context"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/config"
	"github.com/crosstalk-io/crosstalk/internal/errors"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/floor"
	"github.com/crosstalk-io/crosstalk/internal/logging"
	"github.com/crosstalk-io/crosstalk/internal/thought"
	"github.com/crosstalk-io/crosstalk/internal/wire"
)

// member is one agent's assembled worker set.
type member struct {
	agent  agent.Agent
	ctrl   *floor.Controller
	source *thought.Source
	tx     *wire.Transmitter
	rx     *wire.Receiver
}

// Runner owns one conversation: it wires the members together at Start and
// joins every worker at Stop. Cross-agent state lives only in the fabric and
// the links; everything else is owned by exactly one agent's goroutines.
type Runner struct {
	bus *event.Bus
	log *logging.Logger
	cfg runnerConfig

	fabric  *floor.Fabric
	members []*member
	links   []*wire.Link

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Runner publishing telemetry on bus.
func New(bus *event.Bus, log *logging.Logger, opts ...Option) (*Runner, error) {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.agents) < 2 {
		return nil, errors.NewValidationError("a conversation needs at least two agents").
			WithField("conversation.agents").WithValue(cfg.agents)
	}

	return &Runner{
		bus: bus,
		log: log.WithComponent("runner"),
		cfg: cfg,
	}, nil
}

// Agents returns the participant ids in configuration order.
func (r *Runner) Agents() []agent.ID {
	return append([]agent.ID(nil), r.cfg.agents...)
}

// Fabric returns the shared coordination state. Read-only callers only; all
// mutation goes through the controllers.
func (r *Runner) Fabric() *floor.Fabric { return r.fabric }

// Start builds the fabric, the links, and every agent's workers, then runs
// them until ctx is cancelled, Stop is called, or the configured duration
// elapses. Start does not block; use Wait or Done.
func (r *Runner) Start(ctx context.Context) error {
	if r.running {
		return errors.ErrAlreadyRunning
	}
	r.running = true

	// WithTimeout's cancel doubles as the Stop hook, so only one derived
	// context is ever created.
	var cancel context.CancelFunc
	if r.cfg.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.cfg.duration)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	r.cancel = cancel
	r.done = make(chan struct{})

	r.build()

	var wg conc.WaitGroup
	for _, m := range r.members {
		m := m
		wg.Go(func() { m.ctrl.Run(ctx) })
		wg.Go(func() { m.source.Run(ctx) })
		wg.Go(func() { m.tx.Run(ctx) })
		wg.Go(func() { m.rx.Run(ctx) })
	}

	r.log.Info("conversation started",
		"agents", len(r.members),
		"tick", r.cfg.tick,
		"seed", r.cfg.seed)

	go func() {
		defer close(r.done)
		if recovered := wg.WaitAndRecover(); recovered != nil {
			r.log.Error("worker panicked", "panic", recovered.String())
		}
		for _, l := range r.links {
			l.Close()
		}
		r.log.Info("conversation stopped")
	}()

	return nil
}

// build assembles the fabric, all point-to-point links, and each member's
// workers. Each agent gets its own seeded random sources so runs with a
// nonzero seed replay exactly.
func (r *Runner) build() {
	r.fabric = floor.NewFabric(r.bus)
	r.members = r.members[:0]
	r.links = r.links[:0]

	seed := r.cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// One link per ordered pair of agents.
	outbound := make(map[agent.ID][]*wire.Link)
	inbound := make(map[agent.ID][]*wire.Link)
	for _, from := range r.cfg.agents {
		for _, to := range r.cfg.agents {
			if from == to {
				continue
			}
			l := wire.NewLink(from, to, r.cfg.linkBuffer)
			outbound[from] = append(outbound[from], l)
			inbound[to] = append(inbound[to], l)
			r.links = append(r.links, l)
		}
	}

	for i, id := range r.cfg.agents {
		a := agent.New(id, r.cfg.params)
		r.fabric.Join(id)

		// Distinct streams per worker so the draws are independent.
		base := seed + int64(i)*3
		ctrl := floor.NewController(a, r.fabric, r.bus, r.log, r.cfg.tick,
			rand.New(rand.NewSource(base)))
		source := thought.NewSource(id, r.bus, r.log, r.cfg.tick, r.cfg.queueCapacity,
			a.Params.ThinkingProbability, rand.New(rand.NewSource(base+1)))
		tx := wire.NewTransmitter(id, source, ctrl, outbound[id], r.bus, r.log,
			r.cfg.pacing, r.cfg.queueWait, a.Params.TalkingProbability,
			rand.New(rand.NewSource(base+2)))
		rx := wire.NewReceiver(id, inbound[id], source, r.bus, r.log, r.cfg.tick)

		r.members = append(r.members, &member{
			agent:  a,
			ctrl:   ctrl,
			source: source,
			tx:     tx,
			rx:     rx,
		})
	}
}

// Apply swaps the live-tunable probabilities into every running worker. The
// next tick's draws use the new values.
func (r *Runner) Apply(t config.Tunables) {
	for _, m := range r.members {
		m.ctrl.SetProbabilities(t.PK, t.InterruptProbability)
		m.source.SetThinkingProbability(t.ThinkingProbability)
		m.tx.SetTalkingProbability(t.TalkingProbability)
	}
	r.log.Info("tunables applied",
		"p_k", t.PK,
		"interrupt", t.InterruptProbability,
		"thinking", t.ThinkingProbability,
		"talking", t.TalkingProbability)
}

// Stop cancels the run and blocks until every worker has exited. Safe to
// call more than once; before Start it reports ErrNotRunning.
func (r *Runner) Stop() error {
	if r.cancel == nil {
		return errors.ErrNotRunning
	}
	r.cancel()
	<-r.done
	return nil
}

// Wait blocks until the run ends by any path.
func (r *Runner) Wait() {
	if r.done != nil {
		<-r.done
	}
}

// Done returns a channel closed when every worker has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

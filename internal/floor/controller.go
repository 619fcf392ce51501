package floor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/logging"
)

// collisionWindow is the pause between declaring intent and claiming. It
// gives a simultaneously intending peer time to set its own wants_floor so
// genuine collisions are visible to the claim's tie-break.
const collisionWindow = 100 * time.Microsecond

// Controller is one agent's turn-taking state machine. Its driver loop makes
// the unprompted initiation draws each tick and supervises the active tenure;
// the transmitter enters the same acquisition path through Acquire when it
// has a message waiting.
//
// The controller is the only component that moves the agent between idle,
// intending, talking, and yielding, and the only one that feeds grants to the
// transmitter.
type Controller struct {
	agent  agent.Agent
	fabric *Fabric
	bus    *event.Bus
	log    *logging.Logger
	tick   time.Duration
	grants chan *Grant

	mu            sync.Mutex
	state         State
	grant         *Grant
	rng           *rand.Rand
	pk            float64
	interruptProb float64
}

// NewController creates a Controller for a. The rng drives the initiation and
// interruption draws and the tenure sampling; give each agent its own seeded
// source for reproducible runs.
func NewController(a agent.Agent, fabric *Fabric, bus *event.Bus, log *logging.Logger, tick time.Duration, rng *rand.Rand) *Controller {
	return &Controller{
		agent:         a,
		fabric:        fabric,
		bus:           bus,
		log:           log.WithAgent(a.ID.String()).WithComponent("controller"),
		tick:          tick,
		grants:        make(chan *Grant, 1),
		state:         StateIdle,
		rng:           rng,
		pk:            a.Params.PK,
		interruptProb: a.Params.InterruptProbability,
	}
}

// Grants returns the channel carrying tenures the driver loop acquired
// unprompted. The transmitter paces these exactly like the tenures it
// acquires itself.
func (c *Controller) Grants() <-chan *Grant { return c.grants }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetProbabilities swaps the initiation and interruption probabilities.
// Safe to call mid-run; the next tick's draw uses the new values.
func (c *Controller) SetProbabilities(pk, interrupt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pk = pk
	c.interruptProb = interrupt
}

// Run drives the state machine until ctx is cancelled. Each tick evaluates
// exactly one transition, so the tick interval bounds both collision
// detection latency and floor release latency.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-ticker.C:
			c.step()
		}
	}
}

// step evaluates one state transition.
func (c *Controller) step() {
	switch c.State() {
	case StateIdle:
		// Unprompted initiation: p_k while the floor is free, the rarer
		// interrupt probability while a peer is talking.
		p := c.initiationProbability()
		if c.draw(p) {
			if g := c.Acquire(); g != nil {
				c.handoff(g)
			}
		}
	case StateIntending:
		// Transient; owned by an in-flight Acquire on another goroutine.
	case StateTalking:
		c.superviseTenure()
	case StateYielding:
		c.setState(StateIdle)
	}
}

// Acquire attempts one declare-intent-then-claim pass. It only proceeds from
// idle, so a prompted call from the transmitter and the driver's unprompted
// path can never race each other into a double tenure. On a grant the agent
// is talking; on a denial it passes through yielding back to idle.
func (c *Controller) Acquire() *Grant {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.state = StateIntending
	c.mu.Unlock()

	c.fabric.DeclareIntent(c.agent.ID)
	time.Sleep(collisionWindow)

	g, err := c.fabric.Claim(c.agent.ID, c.sampleTenure())
	if err != nil {
		c.log.Warn("claim failed", "error", err)
	}
	if g == nil {
		c.setState(StateYielding)
		return nil
	}

	c.mu.Lock()
	c.state = StateTalking
	c.grant = g
	c.mu.Unlock()

	c.log.Info("floor granted",
		"interrupt", g.Interrupted(),
		"deadline", g.Deadline())
	c.bus.Publish(event.NewFloorGrantedEvent(c.agent.ID.String(), g.Interrupted(), g.Deadline()))
	return g
}

// superviseTenure enforces duration-based release independent of the
// transmit path: even if every send failed, the floor comes back within one
// tick of the deadline. It also notices revocation by an interrupting peer.
func (c *Controller) superviseTenure() {
	c.mu.Lock()
	g := c.grant
	c.mu.Unlock()

	if g == nil {
		c.setState(StateIdle)
		return
	}
	if g.Active() {
		return
	}
	g.Release(ReasonDeadline) // no-op when the transmitter or an interrupt already ended it
	c.mu.Lock()
	c.grant = nil
	c.state = StateIdle
	c.mu.Unlock()
}

// handoff passes an unprompted tenure to the transmitter. The channel has
// room for one grant and the transmitter drains it ahead of its queue wait,
// so the default branch means nobody will pace this tenure; end it rather
// than hold the floor silent.
func (c *Controller) handoff(g *Grant) {
	select {
	case c.grants <- g:
	default:
		c.log.Warn("no transmitter for granted floor, releasing")
		g.Release(ReasonFailed)
	}
}

// shutdown releases any live tenure so stop never leaks a held floor.
func (c *Controller) shutdown() {
	c.mu.Lock()
	g := c.grant
	c.grant = nil
	c.state = StateIdle
	c.mu.Unlock()

	if g != nil {
		g.Release(ReasonStopped)
	}
}

func (c *Controller) initiationProbability() float64 {
	c.mu.Lock()
	pk, ip := c.pk, c.interruptProb
	c.mu.Unlock()

	if _, held := c.fabric.Holder(); held {
		return ip
	}
	return pk
}

func (c *Controller) draw(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < p
}

// sampleTenure draws a talk duration uniformly from the agent's bounds.
func (c *Controller) sampleTenure() time.Duration {
	lo, hi := c.agent.Params.MinTalk, c.agent.Params.MaxTalk
	if hi <= lo {
		return lo
	}
	c.mu.Lock()
	f := c.rng.Float64()
	c.mu.Unlock()
	return lo + time.Duration(f*float64(hi-lo))
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

package conversation

import (
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/config"
)

// runnerConfig holds the Runner's assembled settings.
type runnerConfig struct {
	agents        []agent.ID
	params        agent.Params
	tick          time.Duration
	seed          int64
	duration      time.Duration
	pacing        time.Duration
	queueWait     time.Duration
	linkBuffer    int
	queueCapacity int
}

// defaultRunnerConfig mirrors the reference defaults in config.Default.
func defaultRunnerConfig() runnerConfig {
	cfg := config.Default()
	rc := runnerConfig{
		params:        cfg.AgentParams(),
		tick:          cfg.Conversation.Tick,
		duration:      cfg.Conversation.Duration,
		pacing:        cfg.Wire.PacingInterval,
		queueWait:     cfg.Wire.QueueWait,
		linkBuffer:    cfg.Wire.LinkBuffer,
		queueCapacity: cfg.Thought.QueueCapacity,
	}
	for _, id := range cfg.Conversation.Agents {
		rc.agents = append(rc.agents, agent.ID(id))
	}
	return rc
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithAgents sets the participant ids.
func WithAgents(ids ...agent.ID) Option {
	return func(c *runnerConfig) { c.agents = ids }
}

// WithParams sets the behavior parameters applied to every agent.
func WithParams(p agent.Params) Option {
	return func(c *runnerConfig) { c.params = p }
}

// WithTick sets the scheduling tick of every driver and thinking loop.
func WithTick(d time.Duration) Option {
	return func(c *runnerConfig) { c.tick = d }
}

// WithSeed seeds every agent's random source for a reproducible run.
// Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(c *runnerConfig) { c.seed = seed }
}

// WithDuration ends the run after d. Zero runs until stopped.
func WithDuration(d time.Duration) Option {
	return func(c *runnerConfig) { c.duration = d }
}

// WithPacing sets the interval between sends during a tenure.
func WithPacing(d time.Duration) Option {
	return func(c *runnerConfig) { c.pacing = d }
}

// WithQueueWait bounds the transmitter's blocking pull from the outbound
// queue.
func WithQueueWait(d time.Duration) Option {
	return func(c *runnerConfig) { c.queueWait = d }
}

// WithLinkBuffer sets each link direction's channel depth.
func WithLinkBuffer(n int) Option {
	return func(c *runnerConfig) { c.linkBuffer = n }
}

// WithQueueCapacity bounds each agent's outbound queue.
func WithQueueCapacity(n int) Option {
	return func(c *runnerConfig) { c.queueCapacity = n }
}

// FromConfig applies every relevant field of cfg in one option.
func FromConfig(cfg *config.Config) Option {
	return func(c *runnerConfig) {
		c.agents = c.agents[:0]
		for _, id := range cfg.Conversation.Agents {
			c.agents = append(c.agents, agent.ID(id))
		}
		c.params = cfg.AgentParams()
		c.tick = cfg.Conversation.Tick
		c.seed = cfg.Conversation.Seed
		c.duration = cfg.Conversation.Duration
		c.pacing = cfg.Wire.PacingInterval
		c.queueWait = cfg.Wire.QueueWait
		c.linkBuffer = cfg.Wire.LinkBuffer
		c.queueCapacity = cfg.Thought.QueueCapacity
	}
}

// Package config defines the crosstalk configuration schema, its defaults,
// validation, and live reload. Configuration is viper-backed: a YAML file
// (explicit --config path, $XDG_CONFIG_HOME/crosstalk, or the working
// directory) overlaid with CROSSTALK_-prefixed environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/crosstalk-io/crosstalk/internal/agent"
)

// Config is the complete runtime configuration.
type Config struct {
	Conversation ConversationConfig `mapstructure:"conversation"`
	Floor        FloorConfig        `mapstructure:"floor"`
	Thought      ThoughtConfig      `mapstructure:"thought"`
	Wire         WireConfig         `mapstructure:"wire"`
	Relay        RelayConfig        `mapstructure:"relay"`
	Log          LogConfig          `mapstructure:"log"`
}

// ConversationConfig shapes the run as a whole. These fields are start-time
// only; live reload never touches them.
type ConversationConfig struct {
	// Agents are the participant ids. At least two, all unique; identity
	// order decides every collision.
	Agents []string `mapstructure:"agents"`
	// Tick is the scheduling interval of every driver and thinking loop. It
	// bounds collision-detection latency and must be at most a tenth of
	// floor.min_talk_duration.
	Tick time.Duration `mapstructure:"tick"`
	// Seed makes runs reproducible when nonzero; zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
	// Duration ends the run after this long; zero runs until interrupted.
	Duration time.Duration `mapstructure:"duration"`
}

// FloorConfig holds the turn-taking probabilities and talk span bounds.
type FloorConfig struct {
	// PK is the probability of seeking a free floor, per tick.
	PK float64 `mapstructure:"p_k"`
	// InterruptProbability is the probability of attempting an interruption
	// while a peer talks, per tick.
	InterruptProbability float64 `mapstructure:"interrupt_probability"`
	// MinTalkDuration and MaxTalkDuration bound the uniformly sampled length
	// of one tenure.
	MinTalkDuration time.Duration `mapstructure:"min_talk_duration"`
	MaxTalkDuration time.Duration `mapstructure:"max_talk_duration"`
}

// ThoughtConfig shapes message generation.
type ThoughtConfig struct {
	// ThinkingProbability is the chance of a spontaneous thought per tick.
	ThinkingProbability float64 `mapstructure:"thinking_probability"`
	// QueueCapacity bounds the outbound queue; the oldest entry is dropped
	// past it. Zero means the package default.
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// WireConfig shapes the transmit and receive loops.
type WireConfig struct {
	// TalkingProbability gates inventing a message when the outbound queue
	// stays empty for a full queue_wait.
	TalkingProbability float64 `mapstructure:"talking_probability"`
	// PacingInterval is the gap between sends during a tenure.
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
	// QueueWait bounds one blocking pull from the outbound queue.
	QueueWait time.Duration `mapstructure:"queue_wait"`
	// LinkBuffer is each direction's channel depth.
	LinkBuffer int `mapstructure:"link_buffer"`
}

// RelayConfig configures the websocket event relay.
type RelayConfig struct {
	// Listen is the relay's address (e.g. ":8089"). Empty disables it.
	Listen string `mapstructure:"listen"`
	// AllowedOrigins whitelists websocket origins; empty allows same-host
	// only.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	// File receives log lines instead of stderr when set. The run command
	// always sets one while the dashboard owns the terminal.
	File string `mapstructure:"file"`
}

// Tunables is the probability subset of the configuration that live reload
// may swap into a running conversation. Structural fields (agents, tick,
// buffers, relay) are start-time only.
type Tunables struct {
	PK                   float64
	InterruptProbability float64
	ThinkingProbability  float64
	TalkingProbability   float64
}

// Default returns the reference configuration: two agents, p_k 0.3,
// 500ms–2s tenures, ~10 messages/second pacing.
func Default() *Config {
	return &Config{
		Conversation: ConversationConfig{
			Agents:   []string{"P1", "P2"},
			Tick:     50 * time.Millisecond,
			Seed:     0,
			Duration: 0,
		},
		Floor: FloorConfig{
			PK:                   0.3,
			InterruptProbability: 0.05,
			MinTalkDuration:      500 * time.Millisecond,
			MaxTalkDuration:      2 * time.Second,
		},
		Thought: ThoughtConfig{
			ThinkingProbability: 0.1,
			QueueCapacity:       256,
		},
		Wire: WireConfig{
			TalkingProbability: 0.5,
			PacingInterval:     100 * time.Millisecond,
			QueueWait:          time.Second,
			LinkBuffer:         64,
		},
		Relay: RelayConfig{},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// SetDefaults registers every default with viper so values resolve even
// without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("conversation.agents", defaults.Conversation.Agents)
	viper.SetDefault("conversation.tick", defaults.Conversation.Tick)
	viper.SetDefault("conversation.seed", defaults.Conversation.Seed)
	viper.SetDefault("conversation.duration", defaults.Conversation.Duration)

	viper.SetDefault("floor.p_k", defaults.Floor.PK)
	viper.SetDefault("floor.interrupt_probability", defaults.Floor.InterruptProbability)
	viper.SetDefault("floor.min_talk_duration", defaults.Floor.MinTalkDuration)
	viper.SetDefault("floor.max_talk_duration", defaults.Floor.MaxTalkDuration)

	viper.SetDefault("thought.thinking_probability", defaults.Thought.ThinkingProbability)
	viper.SetDefault("thought.queue_capacity", defaults.Thought.QueueCapacity)

	viper.SetDefault("wire.talking_probability", defaults.Wire.TalkingProbability)
	viper.SetDefault("wire.pacing_interval", defaults.Wire.PacingInterval)
	viper.SetDefault("wire.queue_wait", defaults.Wire.QueueWait)
	viper.SetDefault("wire.link_buffer", defaults.Wire.LinkBuffer)

	viper.SetDefault("relay.listen", defaults.Relay.Listen)
	viper.SetDefault("relay.allowed_origins", defaults.Relay.AllowedOrigins)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.format", defaults.Log.Format)
	viper.SetDefault("log.file", defaults.Log.File)
}

// Load reads the configuration from viper into a Config and validates it.
// Validation faults are fatal at startup: no run is attempted on a bad
// configuration.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Tunables extracts the live-swappable probability subset.
func (c *Config) Tunables() Tunables {
	return Tunables{
		PK:                   c.Floor.PK,
		InterruptProbability: c.Floor.InterruptProbability,
		ThinkingProbability:  c.Thought.ThinkingProbability,
		TalkingProbability:   c.Wire.TalkingProbability,
	}
}

// AgentParams assembles the per-agent parameter block. Every agent runs the
// same parameters.
func (c *Config) AgentParams() agent.Params {
	return agent.Params{
		PK:                   c.Floor.PK,
		InterruptProbability: c.Floor.InterruptProbability,
		ThinkingProbability:  c.Thought.ThinkingProbability,
		TalkingProbability:   c.Wire.TalkingProbability,
		MinTalk:              c.Floor.MinTalkDuration,
		MaxTalk:              c.Floor.MaxTalkDuration,
	}
}

// ConfigDir returns the user's crosstalk config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crosstalk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crosstalk"
	}
	return filepath.Join(home, ".config", "crosstalk")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "crosstalk.yaml")
}

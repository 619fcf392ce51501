package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/crosstalk-io/crosstalk/internal/errors"
)

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log output formats.
func ValidLogFormats() []string {
	return []string{"json", "text"}
}

// Validate checks the configuration and returns every fault found, joined
// into one error. A nil result means the configuration is runnable.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateConversation()...)
	errs = append(errs, c.validateFloor()...)
	errs = append(errs, c.validateThought()...)
	errs = append(errs, c.validateWire()...)
	errs = append(errs, c.validateLog()...)

	return errors.Join(errs...)
}

func (c *Config) validateConversation() []error {
	var errs []error

	if len(c.Conversation.Agents) < 2 {
		errs = append(errs, errors.NewValidationError("a conversation needs at least two agents").
			WithField("conversation.agents").WithValue(c.Conversation.Agents))
	}
	seen := make(map[string]bool, len(c.Conversation.Agents))
	for _, id := range c.Conversation.Agents {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.NewValidationError("agent ids must not be empty").
				WithField("conversation.agents"))
			continue
		}
		if seen[id] {
			errs = append(errs, errors.NewValidationError("agent ids must be unique").
				WithField("conversation.agents").WithValue(id))
		}
		seen[id] = true
	}

	if c.Conversation.Tick <= 0 {
		errs = append(errs, errors.NewValidationError("tick must be positive").
			WithField("conversation.tick").WithValue(c.Conversation.Tick))
	} else if c.Floor.MinTalkDuration > 0 && c.Conversation.Tick > c.Floor.MinTalkDuration/10 {
		// The tick bounds collision-detection and release latency; it has to
		// stay small relative to the shortest tenure.
		errs = append(errs, errors.NewValidationError(
			fmt.Sprintf("tick must be at most a tenth of min_talk_duration (%s)", c.Floor.MinTalkDuration)).
			WithField("conversation.tick").WithValue(c.Conversation.Tick))
	}

	if c.Conversation.Duration < 0 {
		errs = append(errs, errors.NewValidationError("duration must not be negative").
			WithField("conversation.duration").WithValue(c.Conversation.Duration))
	}

	return errs
}

func (c *Config) validateFloor() []error {
	var errs []error

	errs = append(errs, validateProbability("floor.p_k", c.Floor.PK)...)
	errs = append(errs, validateProbability("floor.interrupt_probability", c.Floor.InterruptProbability)...)

	if c.Floor.MinTalkDuration <= 0 {
		errs = append(errs, errors.NewValidationError("min_talk_duration must be positive").
			WithField("floor.min_talk_duration").WithValue(c.Floor.MinTalkDuration))
	}
	if c.Floor.MaxTalkDuration <= 0 {
		errs = append(errs, errors.NewValidationError("max_talk_duration must be positive").
			WithField("floor.max_talk_duration").WithValue(c.Floor.MaxTalkDuration))
	}
	if c.Floor.MinTalkDuration > 0 && c.Floor.MaxTalkDuration > 0 &&
		c.Floor.MinTalkDuration > c.Floor.MaxTalkDuration {
		errs = append(errs, errors.NewValidationError("min_talk_duration must not exceed max_talk_duration").
			WithField("floor.min_talk_duration").WithValue(c.Floor.MinTalkDuration))
	}

	return errs
}

func (c *Config) validateThought() []error {
	var errs []error

	errs = append(errs, validateProbability("thought.thinking_probability", c.Thought.ThinkingProbability)...)
	if c.Thought.QueueCapacity < 0 {
		errs = append(errs, errors.NewValidationError("queue_capacity must not be negative").
			WithField("thought.queue_capacity").WithValue(c.Thought.QueueCapacity))
	}

	return errs
}

func (c *Config) validateWire() []error {
	var errs []error

	errs = append(errs, validateProbability("wire.talking_probability", c.Wire.TalkingProbability)...)
	if c.Wire.PacingInterval <= 0 {
		errs = append(errs, errors.NewValidationError("pacing_interval must be positive").
			WithField("wire.pacing_interval").WithValue(c.Wire.PacingInterval))
	}
	if c.Wire.QueueWait <= 0 {
		errs = append(errs, errors.NewValidationError("queue_wait must be positive").
			WithField("wire.queue_wait").WithValue(c.Wire.QueueWait))
	}
	if c.Wire.LinkBuffer < 1 {
		errs = append(errs, errors.NewValidationError("link_buffer must be at least 1").
			WithField("wire.link_buffer").WithValue(c.Wire.LinkBuffer))
	}

	return errs
}

func (c *Config) validateLog() []error {
	var errs []error

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, errors.NewValidationError(
			fmt.Sprintf("level must be one of %v", ValidLogLevels())).
			WithField("log.level").WithValue(c.Log.Level))
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		errs = append(errs, errors.NewValidationError(
			fmt.Sprintf("format must be one of %v", ValidLogFormats())).
			WithField("log.format").WithValue(c.Log.Format))
	}

	return errs
}

func validateProbability(field string, p float64) []error {
	if p < 0 || p > 1 {
		return []error{errors.NewValidationError("probability must be within [0, 1]").
			WithField(field).WithValue(p)}
	}
	return nil
}

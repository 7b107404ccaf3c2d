package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-apt/logger"
)

// Default session settings.
const (
	DefaultPollInterval = 10 * time.Millisecond // pause between empty reads while waiting
	DefaultReplyTimeout = 1 * time.Second       // how long a mandatory reply may stay silent
	DefaultDrainChunk   = 50                    // bytes discarded per drain read
)

// Session setting limits.
const (
	MinPollInterval = 1 * time.Millisecond
	MaxPollInterval = 1 * time.Second

	MaxReplyTimeout = 30 * time.Second

	MinDrainChunk = 1
	MaxDrainChunk = 4096
)

// SessionConfig holds the configuration of a Session.
type SessionConfig struct {
	name string

	// pollInterval paces reads that returned no data.
	pollInterval time.Duration

	// replyTimeout bounds the silence tolerated before a mandatory reply
	// is declared missing. Zero means the first empty read is final.
	replyTimeout time.Duration

	drainChunk int

	logger logger.Logger
}

// NewSessionConfig creates a session configuration with defaults, then applies opts in order.
func NewSessionConfig(opts ...SessionOption) (*SessionConfig, error) {
	cfg := &SessionConfig{
		name:         "apt",
		pollInterval: DefaultPollInterval,
		replyTimeout: DefaultReplyTimeout,
		drainChunk:   DefaultDrainChunk,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Name returns the session name used in logs and metrics.
func (cfg *SessionConfig) Name() string { return cfg.name }

// PollInterval returns the pause between empty reads.
func (cfg *SessionConfig) PollInterval() time.Duration { return cfg.pollInterval }

// ReplyTimeout returns the silence tolerated before a reply is declared missing.
func (cfg *SessionConfig) ReplyTimeout() time.Duration { return cfg.replyTimeout }

// DrainChunk returns the number of bytes discarded per drain read.
func (cfg *SessionConfig) DrainChunk() int { return cfg.drainChunk }

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// SessionOption is a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithName sets the session name.
func WithName(name string) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if name == "" {
			return errors.New("transport: session name must not be empty")
		}
		cfg.name = name

		return nil
	})
}

// WithPollInterval sets the pause between empty reads.
func WithPollInterval(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < MinPollInterval || d > MaxPollInterval {
			return fmt.Errorf("transport: poll interval %v out of range [%v, %v]", d, MinPollInterval, MaxPollInterval)
		}
		cfg.pollInterval = d

		return nil
	})
}

// WithReplyTimeout sets how long a mandatory reply may stay silent.
// Zero makes the first empty read final.
func WithReplyTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < 0 || d > MaxReplyTimeout {
			return fmt.Errorf("transport: reply timeout %v out of range [0, %v]", d, MaxReplyTimeout)
		}
		cfg.replyTimeout = d

		return nil
	})
}

// WithDrainChunk sets the read size used while draining stale input.
func WithDrainChunk(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < MinDrainChunk || n > MaxDrainChunk {
			return fmt.Errorf("transport: drain chunk %d out of range [%d, %d]", n, MinDrainChunk, MaxDrainChunk)
		}
		cfg.drainChunk = n

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("transport: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

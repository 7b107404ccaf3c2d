package serialport

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-apt/logger"
)

// Default port settings. The controller family talks 115200 8N1.
const (
	DefaultBaudRate     = 115200
	DefaultReadTimeout  = 50 * time.Millisecond // an idle line yields an empty read after this
	DefaultPurgeDelay   = 50 * time.Millisecond // settle time around the post-open purge
	DefaultDialTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// Port setting limits.
const (
	MinReadTimeout = 1 * time.Millisecond
	MaxReadTimeout = 10 * time.Second

	MaxPurgeDelay = 5 * time.Second
)

// Config holds the settings shared by the serial and TCP adapters.
type Config struct {
	baudRate     int
	readTimeout  time.Duration
	purgeDelay   time.Duration
	dialTimeout  time.Duration
	writeTimeout time.Duration

	logger logger.Logger
}

// NewConfig creates a port configuration with defaults, then applies opts in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		baudRate:     DefaultBaudRate,
		readTimeout:  DefaultReadTimeout,
		purgeDelay:   DefaultPurgeDelay,
		dialTimeout:  DefaultDialTimeout,
		writeTimeout: DefaultWriteTimeout,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// BaudRate returns the serial line speed.
func (cfg *Config) BaudRate() int { return cfg.baudRate }

// ReadTimeout returns how long a read waits before reporting no data.
func (cfg *Config) ReadTimeout() time.Duration { return cfg.readTimeout }

// PurgeDelay returns the settle time around the post-open input purge.
func (cfg *Config) PurgeDelay() time.Duration { return cfg.purgeDelay }

// DialTimeout returns the TCP dial timeout.
func (cfg *Config) DialTimeout() time.Duration { return cfg.dialTimeout }

// WriteTimeout returns the TCP write timeout.
func (cfg *Config) WriteTimeout() time.Duration { return cfg.writeTimeout }

// Option is a functional option for configuring a port.
type Option interface {
	apply(*Config) error
}

type portOptFunc func(*Config) error

func (f portOptFunc) apply(cfg *Config) error { return f(cfg) }

// WithBaudRate sets the serial line speed.
func WithBaudRate(baud int) Option {
	return portOptFunc(func(cfg *Config) error {
		if baud <= 0 {
			return fmt.Errorf("serialport: baud rate %d must be positive", baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithReadTimeout sets how long a read waits before reporting no data.
func WithReadTimeout(d time.Duration) Option {
	return portOptFunc(func(cfg *Config) error {
		if d < MinReadTimeout || d > MaxReadTimeout {
			return fmt.Errorf("serialport: read timeout %v out of range [%v, %v]", d, MinReadTimeout, MaxReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithPurgeDelay sets the settle time around the post-open input purge.
func WithPurgeDelay(d time.Duration) Option {
	return portOptFunc(func(cfg *Config) error {
		if d < 0 || d > MaxPurgeDelay {
			return fmt.Errorf("serialport: purge delay %v out of range [0, %v]", d, MaxPurgeDelay)
		}
		cfg.purgeDelay = d

		return nil
	})
}

// WithDialTimeout sets the TCP dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return portOptFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("serialport: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the TCP write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return portOptFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("serialport: write timeout must be positive")
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the port.
func WithLogger(l logger.Logger) Option {
	return portOptFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("serialport: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

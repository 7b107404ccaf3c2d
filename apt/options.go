package apt

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-apt/logger"
)

// Default controller timings.
const (
	DefaultSettleDelay = 100 * time.Millisecond // device processing time after a set verb
	DefaultHomeTimeout = 120 * time.Second
	DefaultMoveTimeout = 120 * time.Second
)

// Timing limits.
const (
	MaxSettleDelay = 10 * time.Second
	MaxTimeout     = 1 * time.Hour
)

// Option is a functional option for configuring a Controller.
type Option interface {
	apply(*Controller) error
}

type ctrlOptFunc func(*Controller) error

func (f ctrlOptFunc) apply(c *Controller) error { return f(c) }

// WithSettleDelay sets the pause after motor set verbs. Zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return ctrlOptFunc(func(c *Controller) error {
		if d < 0 || d > MaxSettleDelay {
			return fmt.Errorf("apt: settle delay %v out of range [0, %v]", d, MaxSettleDelay)
		}
		c.settleDelay = d

		return nil
	})
}

// WithHomeTimeout sets the deadline for homing to complete.
func WithHomeTimeout(d time.Duration) Option {
	return ctrlOptFunc(func(c *Controller) error {
		if d <= 0 || d > MaxTimeout {
			return fmt.Errorf("apt: home timeout %v out of range (0, %v]", d, MaxTimeout)
		}
		c.homeTimeout = d

		return nil
	})
}

// WithMoveTimeout sets the deadline for absolute and relative moves to complete.
func WithMoveTimeout(d time.Duration) Option {
	return ctrlOptFunc(func(c *Controller) error {
		if d <= 0 || d > MaxTimeout {
			return fmt.Errorf("apt: move timeout %v out of range (0, %v]", d, MaxTimeout)
		}
		c.moveTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the controller.
func WithLogger(l logger.Logger) Option {
	return ctrlOptFunc(func(c *Controller) error {
		if l == nil {
			return errors.New("apt: logger must not be nil")
		}
		c.logger = l

		return nil
	})
}

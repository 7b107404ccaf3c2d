package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Guard runs fn with a context bounded by timeout.
//
// When the deadline expires while fn is blocked, Guard interrupts the port
// (if it implements Interrupter) and returns an error wrapping ErrTimeout.
// The session is left desynced; the next exchange must drain. A timeout of
// zero or less runs fn unbounded. Cancellation of ctx itself is reported
// as-is and is not a timeout.
func (s *Session) Guard(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	gctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(gctx, func() {
		if it, ok := s.port.(Interrupter); ok {
			if err := it.Interrupt(); err != nil {
				s.logger.Debug("transport: interrupt failed", "error", err)
			}
		}
	})
	defer stop()

	err := fn(gctx)
	if err == nil {
		return nil
	}

	if ctx.Err() == nil && errors.Is(gctx.Err(), context.DeadlineExceeded) {
		s.MarkDesynced("guard timeout")
		if errors.Is(err, ErrTimeout) {
			return err
		}
		s.metrics.incTimeoutCount()

		return fmt.Errorf("%w: exceeded %v: %w", ErrTimeout, timeout, err)
	}

	return err
}

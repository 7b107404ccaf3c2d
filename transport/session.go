package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/go-apt/logger"
	"github.com/arloliu/go-apt/message"
)

// Exchange describes one request/response exchange with the controller.
type Exchange struct {
	// Request is the encoded frame to write.
	Request []byte

	// Drain discards stale input before the request is written.
	// Required on a desynced session.
	Drain bool

	// ReplySize is the exact number of reply bytes to read. Zero means the
	// request has no synchronous reply; otherwise it covers at least a header.
	ReplySize int

	// Completion is the ID of a completion message to wait for after the
	// reply, or zero for none. The rest of the completion frame is read once
	// its ID has been observed, sized by its own header.
	Completion uint16
}

// Session serialises exchanges with one controller over a Port.
//
// All exported methods are goroutine-safe. Exchanges are executed one at a
// time in the order their callers acquire the session.
type Session struct {
	port    Port
	cfg     *SessionConfig
	logger  logger.Logger
	limiter *rate.Limiter
	metrics *SessionMetrics

	mu    sync.Mutex
	state AtomicState
}

// NewSession creates a Session over port.
func NewSession(port Port, opts ...SessionOption) (*Session, error) {
	if port == nil {
		return nil, ErrPortNil
	}

	cfg, err := NewSessionConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Session{
		port:    port,
		cfg:     cfg,
		logger:  cfg.GetLogger().With("session", cfg.Name()),
		limiter: rate.NewLimiter(rate.Every(cfg.PollInterval()), 1),
		metrics: newSessionMetrics(),
	}, nil
}

// Config returns the session configuration.
func (s *Session) Config() *SessionConfig { return s.cfg }

// Metrics returns the session metrics.
func (s *Session) Metrics() *SessionMetrics { return s.metrics }

// State returns the current synchronisation state.
func (s *Session) State() State { return s.state.Get() }

// MarkDesynced flags the byte stream as misaligned, for example after a reply
// that failed to decode. The next exchange must drain.
func (s *Session) MarkDesynced(reason string) {
	if s.state.ToDesynced() {
		s.logger.Warn("transport: session desynced", "reason", reason)
	}
}

// Close closes the session. The port is closed too when it implements io.Closer.
// Closing an already closed session is a no-op.
func (s *Session) Close() error {
	if !s.state.ToClosed() {
		return nil
	}

	// release a blocked read so an in-flight exchange observes the closed state
	if it, ok := s.port.(Interrupter); ok {
		if err := it.Interrupt(); err != nil {
			s.logger.Debug("transport: interrupt on close failed", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("transport: session closed")

	if c, ok := s.port.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("%w: close: %w", ErrIOFailure, err)
		}
	}

	return nil
}

// Do executes an exchange and returns the reply bytes, if any.
//
// The sequence is: optional drain, write the request, read exactly
// ReplySize bytes, then wait for the Completion message.
func (s *Session) Do(ctx context.Context, ex Exchange) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.do(ctx, ex)
	if err != nil {
		s.metrics.incExchangeErrCount()
		return nil, err
	}

	return reply, nil
}

func (s *Session) do(ctx context.Context, ex Exchange) ([]byte, error) {
	if ex.ReplySize < 0 || (ex.ReplySize > 0 && ex.ReplySize < message.HeaderSize) {
		return nil, fmt.Errorf("%w: reply size %d", ErrInvalidSize, ex.ReplySize)
	}
	if err := s.checkState(ex.Drain); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ex.Drain {
		if _, err := s.drainPending(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.writeFrame(ex.Request); err != nil {
		return nil, err
	}

	var reply []byte
	if ex.ReplySize > 0 {
		var err error
		reply, err = s.readExact(ctx, ex.ReplySize)
		if err != nil {
			return nil, err
		}
		s.metrics.incFrameRecvCount(binary.LittleEndian.Uint16(reply))
	}

	if ex.Completion != 0 {
		if err := s.pollForMessage(ctx, ex.Completion); err != nil {
			return nil, err
		}
		if err := s.readFrameRest(ctx, ex.Completion); err != nil {
			return nil, err
		}
	}

	return reply, nil
}

// WriteFrame writes one encoded frame to the port.
func (s *Session) WriteFrame(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkState(false); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writeFrame(frame)
}

// ReadExact reads exactly n bytes.
//
// It fails with ErrDeviceUnreachable when nothing arrives within the reply
// timeout, and with message.ErrFrameTooShort when the port goes silent after
// a partial reply.
func (s *Session) ReadExact(ctx context.Context, n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		return nil, fmt.Errorf("%w: read of %d bytes", ErrInvalidSize, n)
	}
	if err := s.checkState(false); err != nil {
		return nil, err
	}

	return s.readExact(ctx, n)
}

// DrainPending discards input until a read returns no data and reports the
// number of bytes discarded. A desynced session becomes ready again.
func (s *Session) DrainPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkState(true); err != nil {
		return 0, err
	}

	return s.drainPending(ctx)
}

// PollForMessage reads two-byte message IDs until id is observed.
//
// It blocks until then; bound it with a context deadline or Guard.
func (s *Session) PollForMessage(ctx context.Context, id uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkState(false); err != nil {
		return err
	}

	return s.pollForMessage(ctx, id)
}

func (s *Session) checkState(draining bool) error {
	switch s.state.Get() {
	case ClosedState:
		return ErrSessionClosed
	case DesyncedState:
		if !draining {
			return ErrSessionDesynced
		}
	}

	return nil
}

func (s *Session) writeFrame(frame []byte) error {
	if len(frame) < message.HeaderSize {
		return fmt.Errorf("%w: %d bytes", message.ErrFrameTooShort, len(frame))
	}

	for written := 0; written < len(frame); {
		n, err := s.port.Write(frame[written:])
		written += n

		if err != nil {
			return fmt.Errorf("%w: write: %w", ErrIOFailure, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: write: no progress after %d of %d bytes", ErrIOFailure, written, len(frame))
		}
	}

	id := binary.LittleEndian.Uint16(frame)
	s.metrics.incFrameSendCount(id)
	s.logger.Debug("transport: frame sent", "msg", message.Name(id), "size", len(frame))

	return nil
}

func (s *Session) readExact(ctx context.Context, n int) ([]byte, error) {
	buf := make([]byte, n)
	deadline := time.Now().Add(s.cfg.replyTimeout)

	for got := 0; got < n; {
		m, err := s.readSome(ctx, buf[got:])
		got += m
		if err != nil {
			return nil, err
		}

		if m > 0 {
			deadline = time.Now().Add(s.cfg.replyTimeout)
			continue
		}

		if !time.Now().Before(deadline) {
			if got == 0 {
				return nil, fmt.Errorf("%w: %d bytes expected", ErrDeviceUnreachable, n)
			}
			s.MarkDesynced("partial reply")

			return nil, fmt.Errorf("%w: got %d of %d bytes", message.ErrFrameTooShort, got, n)
		}

		if err := s.pace(ctx, "read"); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func (s *Session) drainPending(ctx context.Context) (int, error) {
	buf := make([]byte, s.cfg.drainChunk)
	total := 0

	for {
		n, err := s.readSome(ctx, buf)
		total += n
		if err != nil {
			s.metrics.addDrainedBytes(total)
			return total, err
		}
		if n == 0 {
			break
		}
	}

	s.metrics.addDrainedBytes(total)
	if total > 0 {
		s.logger.Debug("transport: drained stale input", "bytes", total)
	}

	if s.state.IsDesynced() && s.state.ToReady() {
		s.logger.Debug("transport: session resynced")
	}

	return total, nil
}

func (s *Session) pollForMessage(ctx context.Context, id uint16) error {
	var chunk [2]byte
	have := 0

	for {
		n, err := s.readSome(ctx, chunk[have:])
		if err != nil {
			return err
		}

		if n == 0 {
			if err := s.pace(ctx, "poll"); err != nil {
				return err
			}
			continue
		}

		have += n
		if have < len(chunk) {
			continue
		}
		have = 0

		got := binary.LittleEndian.Uint16(chunk[:])
		if got == id {
			s.metrics.incFrameRecvCount(got)
			s.logger.Debug("transport: completion received", "msg", message.Name(got))

			return nil
		}
		s.logger.Debug("transport: skipped while polling",
			"want", message.Name(id),
			"got", fmt.Sprintf("0x%04X", got),
		)
	}
}

// readFrameRest consumes the remainder of a frame whose two ID bytes were
// already read: the rest of the header and, for a long frame, its payload.
func (s *Session) readFrameRest(ctx context.Context, id uint16) error {
	rest, err := s.readExact(ctx, message.HeaderSize-2)
	if err == nil && rest[2]&message.LongFormFlag != 0 {
		if size := int(binary.LittleEndian.Uint16(rest)); size > 0 {
			_, err = s.readExact(ctx, size)
		}
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrDeviceUnreachable) {
		s.MarkDesynced("truncated frame")
		return fmt.Errorf("%w: rest of %s missing", message.ErrFrameTooShort, message.Name(id))
	}

	return err
}

// readSome performs a single port read. A zero count with a nil error is an empty read.
func (s *Session) readSome(ctx context.Context, buf []byte) (int, error) {
	if s.state.IsClosed() {
		return 0, ErrSessionClosed
	}
	if ctx.Err() != nil {
		return 0, s.abandon(ctx, "read")
	}

	n, err := s.port.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		// an interrupted read surfaces as a port error once the context is done
		if ctx.Err() != nil {
			return n, s.abandon(ctx, "read")
		}
		s.MarkDesynced("read failure")

		return n, fmt.Errorf("%w: read: %w", ErrIOFailure, err)
	}

	if n == 0 {
		s.metrics.incEmptyReadCount()
	}

	return n, nil
}

// pace waits for the next poll slot.
func (s *Session) pace(ctx context.Context, op string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return s.abandon(ctx, op)
	}

	return nil
}

// abandon marks the session desynced and reports why the operation stopped.
// A limiter that cannot fit the next slot before the deadline counts as expiry.
func (s *Session) abandon(ctx context.Context, op string) error {
	s.MarkDesynced(op + " abandoned")

	cause := ctx.Err()
	if cause == nil {
		cause = context.DeadlineExceeded
	}

	if errors.Is(cause, context.DeadlineExceeded) {
		s.metrics.incTimeoutCount()
		return fmt.Errorf("%w: %s: %w", ErrTimeout, op, cause)
	}

	return fmt.Errorf("transport: %s: %w", op, cause)
}

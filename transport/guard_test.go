package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-apt/message"
)

func homeExchange() Exchange {
	return Exchange{
		Request:    message.EncodeShort(message.MotMoveHome, 1, 0, testDest, testSource),
		Drain:      true,
		Completion: message.MotMoveHomed,
	}
}

func TestGuard_Success(t *testing.T) {
	s, port := newTestSession(t)
	port.OnWrite(func([]byte) [][]byte {
		return [][]byte{{0x44, 0x04, 0x01, 0x00, testSource, testDest}}
	})

	err := s.Guard(context.Background(), time.Second, func(ctx context.Context) error {
		_, err := s.Do(ctx, homeExchange())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, port.Interrupts())
	assert.Equal(t, uint64(0), s.Metrics().TimeoutCount.Load())
}

func TestGuard_TimeoutWithoutCompletion(t *testing.T) {
	s, port := newTestSession(t)

	start := time.Now()
	err := s.Guard(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		_, err := s.Do(ctx, homeExchange())
		return err
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, DesyncedState, s.State())
	assert.Equal(t, uint64(1), s.Metrics().TimeoutCount.Load())

	// the next non-draining exchange is refused, a draining one recovers
	port.OnWrite(echoResponder)
	req := message.EncodeShort(message.MotReqPosCounter, 1, 0, testDest, testSource)
	_, err = s.Do(context.Background(), Exchange{Request: req, ReplySize: message.HeaderSize})
	require.ErrorIs(t, err, ErrSessionDesynced)

	_, err = s.Do(context.Background(), Exchange{Request: req, Drain: true, ReplySize: message.HeaderSize})
	require.NoError(t, err)
	assert.Equal(t, ReadyState, s.State())
}

func TestGuard_InterruptsBlockedRead(t *testing.T) {
	s, port := newTestSession(t)
	port.BlockWhenEmpty(true)

	err := s.Guard(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		return s.PollForMessage(ctx, message.MotMoveHomed)
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, port.Interrupts(), 1)
	assert.Equal(t, DesyncedState, s.State())

	port.BlockWhenEmpty(false)
	_, err = s.DrainPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReadyState, s.State())
}

func TestGuard_ParentCanceled(t *testing.T) {
	s, _ := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Guard(ctx, time.Minute, func(ctx context.Context) error {
		return s.PollForMessage(ctx, message.MotMoveHomed)
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, uint64(0), s.Metrics().TimeoutCount.Load())
}

func TestGuard_Unbounded(t *testing.T) {
	s, _ := newTestSession(t)

	called := false
	err := s.Guard(context.Background(), 0, func(ctx context.Context) error {
		called = true
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)

		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

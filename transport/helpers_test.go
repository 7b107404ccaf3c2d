package transport

import (
	"testing"
	"time"

	"github.com/arloliu/go-apt/internal/porttest"
	"github.com/arloliu/go-apt/message"
)

const (
	testDest   = 0x50
	testSource = 0x01
)

// newTestSession creates a Session over a scripted port with fast polling.
func newTestSession(t *testing.T, opts ...SessionOption) (*Session, *porttest.Port) {
	t.Helper()

	port := porttest.New()
	defaults := []SessionOption{
		WithPollInterval(MinPollInterval),
		WithReplyTimeout(20 * time.Millisecond),
	}

	s, err := NewSession(port, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s, port
}

// echoResponder answers every short request with a short frame whose ID is
// the request ID plus one and whose first parameter is copied from the request.
func echoResponder(frame []byte) [][]byte {
	h, err := message.ParseHeader(frame)
	if err != nil {
		return nil
	}

	return [][]byte{message.EncodeShort(h.ID+1, h.Param1, h.Param2, testSource, testDest)}
}

// completionFrame builds a MOT_MOVE_COMPLETED frame with a 14-byte status block.
func completionFrame() []byte {
	frame := []byte{0x64, 0x04, 0x0E, 0x00, testSource | message.LongFormFlag, testDest}
	return append(frame, make([]byte, 14)...)
}

package apt

import (
	"testing"
	"time"

	"github.com/arloliu/go-apt/internal/porttest"
	"github.com/arloliu/go-apt/message"
	"github.com/arloliu/go-apt/transport"
	"github.com/arloliu/go-apt/units"
)

const (
	testDest   = 0x50
	testSource = 0x01
)

var testAddr = Address{Destination: testDest, Source: testSource, Channel: 1}

// newTestController creates an MST controller over a scripted port with fast
// polling, a short reply timeout and no settle delay.
func newTestController(t *testing.T, opts ...Option) (*Controller, *porttest.Port) {
	t.Helper()

	port := porttest.New()
	sess, err := transport.NewSession(port,
		transport.WithPollInterval(transport.MinPollInterval),
		transport.WithReplyTimeout(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("newTestController: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	ctrl, err := NewController(sess, testAddr, units.MST, append([]Option{WithSettleDelay(0)}, opts...)...)
	if err != nil {
		t.Fatalf("newTestController: %v", err)
	}

	return ctrl, port
}

// device answers requests by ID with canned frames, like a controller would.
type device map[uint16][][]byte

func (d device) respond(frame []byte) [][]byte {
	h, err := message.ParseHeader(frame)
	if err != nil {
		return nil
	}

	return d[h.ID]
}

// serve installs d as the port responder.
func serve(port *porttest.Port, d device) {
	port.OnWrite(d.respond)
}

// longReply encodes a reply frame from the device back to the host.
func longReply(t *testing.T, id uint16, values message.Values) []byte {
	t.Helper()

	frame, err := message.EncodeLong(id, testSource, testDest, values)
	if err != nil {
		t.Fatalf("longReply 0x%04X: %v", id, err)
	}

	return frame
}

// shortReply encodes a header-only reply frame from the device back to the host.
func shortReply(id uint16, p1, p2 byte) []byte {
	return message.EncodeShort(id, p1, p2, testSource, testDest)
}

// completion builds a 20-byte MOT_MOVE_COMPLETED style frame for id.
func completion(id uint16) []byte {
	frame := []byte{byte(id), byte(id >> 8), 0x0E, 0x00, testSource | message.LongFormFlag, testDest}
	return append(frame, make([]byte, 14)...)
}

// decodeWritten decodes a frame the controller wrote.
func decodeWritten(t *testing.T, frame []byte, id uint16) message.Values {
	t.Helper()

	msg, err := message.Decode(frame, id)
	if err != nil {
		t.Fatalf("decodeWritten 0x%04X: %v", id, err)
	}

	return msg.Values
}

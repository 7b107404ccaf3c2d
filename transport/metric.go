package transport

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// SessionMetrics contains atomic metrics for a Session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type SessionMetrics struct {
	// FrameSendCount indicates the number of frames written.
	FrameSendCount atomic.Uint64
	// FrameRecvCount indicates the number of replies and completion messages received.
	FrameRecvCount atomic.Uint64
	// ExchangeErrCount indicates the number of exchanges that failed.
	ExchangeErrCount atomic.Uint64
	// TimeoutCount indicates the number of guarded operations that timed out.
	TimeoutCount atomic.Uint64
	// DrainedBytes indicates the number of stale bytes discarded.
	DrainedBytes atomic.Uint64
	// EmptyReadCount indicates the number of reads that returned no data.
	EmptyReadCount atomic.Uint64

	sendByID *xsync.MapOf[uint16, *atomic.Uint64]
	recvByID *xsync.MapOf[uint16, *atomic.Uint64]
}

func newSessionMetrics() *SessionMetrics {
	return &SessionMetrics{
		sendByID: xsync.NewMapOf[uint16, *atomic.Uint64](),
		recvByID: xsync.NewMapOf[uint16, *atomic.Uint64](),
	}
}

func (m *SessionMetrics) incFrameSendCount(id uint16) {
	m.FrameSendCount.Add(1)
	incByID(m.sendByID, id)
}

func (m *SessionMetrics) incFrameRecvCount(id uint16) {
	m.FrameRecvCount.Add(1)
	incByID(m.recvByID, id)
}

func (m *SessionMetrics) incExchangeErrCount() {
	m.ExchangeErrCount.Add(1)
}

func (m *SessionMetrics) incTimeoutCount() {
	m.TimeoutCount.Add(1)
}

func (m *SessionMetrics) addDrainedBytes(n int) {
	m.DrainedBytes.Add(uint64(n))
}

func (m *SessionMetrics) incEmptyReadCount() {
	m.EmptyReadCount.Add(1)
}

// RangeSent calls f for every message ID written so far with its frame count.
// Iteration stops when f returns false.
func (m *SessionMetrics) RangeSent(f func(id uint16, count uint64) bool) {
	rangeByID(m.sendByID, f)
}

// RangeRecv calls f for every message ID received so far with its frame count.
// Iteration stops when f returns false.
func (m *SessionMetrics) RangeRecv(f func(id uint16, count uint64) bool) {
	rangeByID(m.recvByID, f)
}

func incByID(counters *xsync.MapOf[uint16, *atomic.Uint64], id uint16) {
	c, _ := counters.LoadOrCompute(id, func() *atomic.Uint64 { return new(atomic.Uint64) })
	c.Add(1)
}

func rangeByID(counters *xsync.MapOf[uint16, *atomic.Uint64], f func(uint16, uint64) bool) {
	counters.Range(func(id uint16, c *atomic.Uint64) bool {
		return f(id, c.Load())
	})
}

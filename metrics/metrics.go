// Package metrics exports transport session metrics to Prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-apt/message"
	"github.com/arloliu/go-apt/transport"
)

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Collector reads a session's counters at scrape time.
type Collector struct {
	m *transport.SessionMetrics

	framesSent *prometheus.Desc
	framesRecv *prometheus.Desc
	exchErrs   *prometheus.Desc
	timeouts   *prometheus.Desc
	drained    *prometheus.Desc
	emptyReads *prometheus.Desc
	sentByID   *prometheus.Desc
	recvByID   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for the metrics of the named session.
func NewCollector(namespace, session string, m *transport.SessionMetrics) *Collector {
	labels := prometheus.Labels{"session": session}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, variable, labels)
	}

	return &Collector{
		m:          m,
		framesSent: desc("frames_sent_total", "Frames written to the port."),
		framesRecv: desc("frames_received_total", "Replies and completion messages received."),
		exchErrs:   desc("exchange_errors_total", "Exchanges that failed."),
		timeouts:   desc("timeouts_total", "Guarded operations that exceeded their deadline."),
		drained:    desc("drained_bytes_total", "Stale bytes discarded before exchanges."),
		emptyReads: desc("empty_reads_total", "Port reads that returned no data."),
		sentByID:   desc("message_sent_total", "Frames written by message ID.", "id", "msg"),
		recvByID:   desc("message_received_total", "Frames received by message ID.", "id", "msg"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.framesSent
	ch <- c.framesRecv
	ch <- c.exchErrs
	ch <- c.timeouts
	ch <- c.drained
	ch <- c.emptyReads
	ch <- c.sentByID
	ch <- c.recvByID
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	counter(c.framesSent, c.m.FrameSendCount.Load())
	counter(c.framesRecv, c.m.FrameRecvCount.Load())
	counter(c.exchErrs, c.m.ExchangeErrCount.Load())
	counter(c.timeouts, c.m.TimeoutCount.Load())
	counter(c.drained, c.m.DrainedBytes.Load())
	counter(c.emptyReads, c.m.EmptyReadCount.Load())

	c.m.RangeSent(func(id uint16, n uint64) bool {
		counter(c.sentByID, n, fmt.Sprintf("0x%04X", id), message.Name(id))
		return true
	})
	c.m.RangeRecv(func(id uint16, n uint64) bool {
		counter(c.recvByID, n, fmt.Sprintf("0x%04X", id), message.Name(id))
		return true
	})
}

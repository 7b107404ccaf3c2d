package serialport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/arloliu/go-apt/logger"
)

// ErrBridgeClosed is returned by TCPPort.Read after the serial device server
// closed the connection. It matches net.ErrClosed.
var ErrBridgeClosed = fmt.Errorf("serialport: bridge closed: %w", net.ErrClosed)

// TCPPort is a serial line bridged over TCP by a serial device server.
//
// Each read is bounded by the read timeout so that an idle line reports no
// data, matching a local serial port. TCPPort implements
// transport.Interrupter: Interrupt releases a blocked read immediately.
type TCPPort struct {
	conn         net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       logger.Logger
}

// DialTCP connects to a serial device server at addr.
func DialTCP(ctx context.Context, addr string, opts ...Option) (*TCPPort, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: cfg.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("serialport: dial %s: %w", addr, err)
	}

	return newTCPPort(conn, cfg), nil
}

// NewTCPPort wraps an established connection.
func NewTCPPort(conn net.Conn, opts ...Option) (*TCPPort, error) {
	if conn == nil {
		return nil, errors.New("serialport: connection is nil")
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return newTCPPort(conn, cfg), nil
}

func newTCPPort(conn net.Conn, cfg *Config) *TCPPort {
	p := &TCPPort{
		conn:         conn,
		readTimeout:  cfg.readTimeout,
		writeTimeout: cfg.writeTimeout,
		logger:       cfg.logger.With("remoteAddr", conn.RemoteAddr().String()),
	}
	p.logger.Debug("serialport: TCP bridge connected")

	return p
}

// Read implements io.Reader. It returns (0, nil) when nothing arrives within
// the read timeout or the read was interrupted, and ErrBridgeClosed once the
// server has closed the connection.
func (p *TCPPort) Read(buf []byte) (int, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
		return 0, err
	}

	n, err := p.conn.Read(buf)
	switch {
	case err == nil:
		return n, nil
	case isTimeout(err):
		return n, nil
	case errors.Is(err, io.EOF):
		// io.EOF means an idle line to transport.Port; a closed bridge is a failure
		if n > 0 {
			return n, nil
		}
		return 0, ErrBridgeClosed
	default:
		return n, err
	}
}

// Write implements io.Writer.
func (p *TCPPort) Write(frame []byte) (int, error) {
	if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
		return 0, err
	}

	return p.conn.Write(frame)
}

// Interrupt releases a blocked Read, which then reports no data.
func (p *TCPPort) Interrupt() error {
	return p.conn.SetReadDeadline(time.Now())
}

// Close closes the connection.
func (p *TCPPort) Close() error {
	p.logger.Debug("serialport: TCP bridge closed")
	return p.conn.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var ne net.Error

	return errors.As(err, &ne) && ne.Timeout()
}

// Package serialport opens the byte streams a transport.Session runs over: a
// local serial port, or a serial device server reached over TCP.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/arloliu/go-apt/logger"
)

// openFunc opens the OS serial port; replaced in tests.
var openFunc = serial.Open

// Port is an open serial port configured for the controller.
// Reads return no data once the read timeout elapses on an idle line.
type Port struct {
	port   serial.Port
	name   string
	logger logger.Logger
}

// Open opens the named serial port at 8N1, asserts RTS and purges stale input,
// as the controller expects after a connection is established.
func Open(name string, opts ...Option) (*Port, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	sp, err := openFunc(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", name, err)
	}

	if err := setup(sp, cfg); err != nil {
		_ = sp.Close()
		return nil, fmt.Errorf("serialport: setup %s: %w", name, err)
	}

	p := &Port{port: sp, name: name, logger: cfg.logger.With("port", name)}
	p.logger.Debug("serialport: opened", "baud", cfg.baudRate, "readTimeout", cfg.readTimeout)

	return p, nil
}

func setup(sp serial.Port, cfg *Config) error {
	if err := sp.SetReadTimeout(cfg.readTimeout); err != nil {
		return err
	}

	time.Sleep(cfg.purgeDelay)
	if err := sp.ResetInputBuffer(); err != nil {
		return err
	}
	time.Sleep(cfg.purgeDelay)

	return sp.SetRTS(true)
}

// Name returns the OS name of the port.
func (p *Port) Name() string { return p.name }

// Read implements io.Reader. It returns (0, nil) when the line stays idle for the read timeout.
func (p *Port) Read(buf []byte) (int, error) {
	return p.port.Read(buf)
}

// Write implements io.Writer.
func (p *Port) Write(frame []byte) (int, error) {
	return p.port.Write(frame)
}

// Close closes the port.
func (p *Port) Close() error {
	p.logger.Debug("serialport: closed")
	return p.port.Close()
}

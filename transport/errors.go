package transport

import "errors"

var (
	// ErrDeviceUnreachable indicates that no reply arrived where one is mandatory,
	// usually a wrong destination address or a disconnected controller.
	ErrDeviceUnreachable = errors.New("transport: device unreachable, no reply")

	// ErrTimeout indicates that a guarded operation exceeded its deadline.
	// The session is desynced afterwards.
	ErrTimeout = errors.New("transport: operation timeout")

	// ErrIOFailure indicates an error returned by the underlying port.
	ErrIOFailure = errors.New("transport: I/O failure")

	// ErrSessionDesynced indicates an exchange attempted on a desynced session
	// without draining first.
	ErrSessionDesynced = errors.New("transport: session desynced, drain required")

	// ErrSessionClosed indicates use of a closed session.
	ErrSessionClosed = errors.New("transport: session closed")

	// ErrInvalidSize indicates a negative read size or a reply size shorter than a frame header.
	ErrInvalidSize = errors.New("transport: invalid size")

	// ErrPortNil indicates a nil port passed to NewSession.
	ErrPortNil = errors.New("transport: port is nil")
)

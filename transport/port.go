package transport

import "io"

// Port is the byte stream a Session exchanges frames over.
//
// Read may return fewer bytes than requested. A read of zero bytes with a nil
// error, or with io.EOF, means that no data is currently available. Any other
// error is reported as ErrIOFailure. Write must write the whole frame or fail.
type Port interface {
	io.Reader
	io.Writer
}

// Interrupter is implemented by ports whose blocked Read can be released from
// another goroutine. Interrupt must be safe to call concurrently with Read.
type Interrupter interface {
	Interrupt() error
}

// Package porttest provides a scripted in-memory port for exercising sessions
// and controllers without hardware.
package porttest

import (
	"errors"
	"sync"
)

// ErrInterrupted is returned by a blocked Read released through Interrupt.
var ErrInterrupted = errors.New("porttest: read interrupted")

// Responder produces the chunks a device would send back for a written frame.
// Each chunk is delivered by one Read; an empty chunk is an empty read.
type Responder func(frame []byte) [][]byte

// Port is a goroutine-safe scripted byte stream.
//
// Reads consume queued chunks in order. Once the queue is empty a Read returns
// no data, or blocks until more data is queued or Interrupt is called when
// blocking is enabled.
type Port struct {
	mu          sync.Mutex
	chunks      [][]byte
	writes      [][]byte
	respond     Responder
	readErr     error
	writeErr    error
	block       bool
	interrupted bool
	interrupts  int
	closed      bool
	notify      chan struct{}
}

// New creates an empty Port.
func New() *Port {
	return &Port{notify: make(chan struct{}, 1)}
}

// Queue appends chunks to the read queue.
func (p *Port) Queue(chunks ...[]byte) {
	p.mu.Lock()
	for _, c := range chunks {
		p.chunks = append(p.chunks, append([]byte(nil), c...))
	}
	p.mu.Unlock()
	p.wake()
}

// OnWrite installs a responder invoked for every written frame.
func (p *Port) OnWrite(r Responder) {
	p.mu.Lock()
	p.respond = r
	p.mu.Unlock()
}

// BlockWhenEmpty makes Read block on an empty queue instead of returning no data.
func (p *Port) BlockWhenEmpty(block bool) {
	p.mu.Lock()
	p.block = block
	p.mu.Unlock()
	p.wake()
}

// FailReads makes every following Read return err.
func (p *Port) FailReads(err error) {
	p.mu.Lock()
	p.readErr = err
	p.mu.Unlock()
	p.wake()
}

// FailWrites makes every following Write return err.
func (p *Port) FailWrites(err error) {
	p.mu.Lock()
	p.writeErr = err
	p.mu.Unlock()
}

// Read implements io.Reader.
func (p *Port) Read(buf []byte) (int, error) {
	for {
		p.mu.Lock()
		if p.readErr != nil {
			err := p.readErr
			p.mu.Unlock()

			return 0, err
		}

		if len(p.chunks) > 0 {
			head := p.chunks[0]
			n := copy(buf, head)
			if n == len(head) {
				p.chunks = p.chunks[1:]
			} else {
				p.chunks[0] = head[n:]
			}
			p.mu.Unlock()

			return n, nil
		}

		if !p.block || p.closed {
			p.interrupted = false
			p.mu.Unlock()

			return 0, nil
		}

		if p.interrupted {
			p.interrupted = false
			p.mu.Unlock()

			return 0, ErrInterrupted
		}
		p.mu.Unlock()

		<-p.notify
	}
}

// Write implements io.Writer.
func (p *Port) Write(frame []byte) (int, error) {
	p.mu.Lock()
	if p.writeErr != nil {
		err := p.writeErr
		p.mu.Unlock()

		return 0, err
	}

	p.writes = append(p.writes, append([]byte(nil), frame...))
	respond := p.respond
	p.mu.Unlock()

	if respond != nil {
		p.Queue(respond(frame)...)
	}

	return len(frame), nil
}

// Interrupt releases a blocked Read.
func (p *Port) Interrupt() error {
	p.mu.Lock()
	p.interrupted = true
	p.interrupts++
	p.mu.Unlock()
	p.wake()

	return nil
}

// Close marks the port closed; Read stops blocking.
func (p *Port) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wake()

	return nil
}

// Writes returns a copy of every frame written so far.
func (p *Port) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]byte, len(p.writes))
	copy(out, p.writes)

	return out
}

// LastWrite returns the most recently written frame, or nil.
func (p *Port) LastWrite() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.writes) == 0 {
		return nil
	}

	return p.writes[len(p.writes)-1]
}

// Pending returns the number of queued bytes not read yet.
func (p *Port) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.chunks {
		n += len(c)
	}

	return n
}

// Interrupts returns how many times Interrupt was called.
func (p *Port) Interrupts() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.interrupts
}

// Closed reports whether Close was called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *Port) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

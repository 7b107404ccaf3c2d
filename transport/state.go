package transport

import "sync/atomic"

// State is the synchronisation state of a Session.
type State uint32

const (
	// ReadyState means the byte stream is aligned on frame boundaries.
	ReadyState State = iota
	// DesyncedState means an exchange was abandoned midway and stale bytes may be pending.
	DesyncedState
	// ClosedState means the session no longer accepts exchanges.
	ClosedState
)

func (s State) String() string {
	switch s {
	case ReadyState:
		return "Ready"
	case DesyncedState:
		return "Desynced"
	case ClosedState:
		return "Closed"
	default:
		return "Unknown"
	}
}

// AtomicState holds a State that can be read and changed concurrently.
type AtomicState struct {
	state atomic.Uint32
}

func (st *AtomicState) String() string {
	return st.Get().String()
}

// Get returns the current state.
func (st *AtomicState) Get() State {
	return State(st.state.Load())
}

func (st *AtomicState) IsReady() bool {
	return st.Get() == ReadyState
}

func (st *AtomicState) IsDesynced() bool {
	return st.Get() == DesyncedState
}

func (st *AtomicState) IsClosed() bool {
	return st.Get() == ClosedState
}

// ToDesynced moves a ready session to desynced. A closed session stays closed.
func (st *AtomicState) ToDesynced() bool {
	if st.IsDesynced() {
		return true
	}

	return st.state.CompareAndSwap(uint32(ReadyState), uint32(DesyncedState))
}

// ToReady moves a desynced session back to ready. A closed session stays closed.
func (st *AtomicState) ToReady() bool {
	if st.IsReady() {
		return true
	}

	return st.state.CompareAndSwap(uint32(DesyncedState), uint32(ReadyState))
}

// ToClosed closes the session, reporting false if it was already closed.
func (st *AtomicState) ToClosed() bool {
	return st.state.Swap(uint32(ClosedState)) != uint32(ClosedState)
}

// Package transport sequences request/response exchanges over a byte stream
// connected to a motion controller.
//
// The stream is supplied by the caller as a Port. A Port read that returns no
// bytes means "nothing available right now" (a serial port whose read timeout
// elapsed), not end of stream. On top of that contract a Session provides:
//
//   - WriteFrame: write one encoded frame.
//   - ReadExact: read exactly n bytes or fail with ErrDeviceUnreachable (nothing
//     arrived within the reply timeout) or message.ErrFrameTooShort (a partial reply).
//   - DrainPending: discard stale bytes until the line is idle.
//   - PollForMessage: wait for a completion message ID.
//   - Do: the whole drain, write, read and await template of one exchange.
//
// # Synchronisation
//
// The protocol has no request tagging, so exchanges are never pipelined: a
// Session serialises Do calls with a mutex. When an exchange is abandoned
// midway (timeout, cancellation, partial reply) the bytes already consumed are
// lost and the session becomes Desynced. A desynced session only accepts
// exchanges that begin with a drain, or an explicit DrainPending.
//
// # Timeouts
//
// Guard bounds a long-running operation, typically homing, with a deadline. On
// expiry it interrupts a blocked read (if the Port implements Interrupter) and
// reports ErrTimeout, scoped to that operation only.
package transport

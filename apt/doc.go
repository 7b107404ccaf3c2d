// Package apt implements the command/response operations of the motion and
// NanoTrack controller protocol.
//
// A Controller binds a transport.Session to one bus address and stage channel
// and exposes one method per protocol verb. Methods encode the request with
// the message package, exchange it over the session and convert raw device
// units to physical units with the controller's units.ScaleFactors:
//
//	sess, _ := transport.NewSession(port)
//	ctrl, _ := apt.NewController(sess, apt.Address{Destination: 0x50, Source: 0x01, Channel: 1}, units.MST)
//	if err := ctrl.MoveAbsolute(ctx, 1.5); err != nil {
//		// transport.ErrTimeout, transport.ErrDeviceUnreachable, message.ErrFrameMalformed, ...
//	}
//
// Motor set verbs wait a settle delay after the write, since the controller
// needs processing time before it accepts the next command. Homing and moves
// wait for their completion message under a deadline; on expiry the session
// must be drained before reuse, which the next draining verb (Position,
// DiodeReading or any motion command) does implicitly.
//
// Several controllers may share one session, for example one per channel
// via ForChannel; the session serialises their exchanges.
package apt

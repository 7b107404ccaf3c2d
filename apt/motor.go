package apt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/arloliu/go-apt/message"
)

// Channel enable states of MOD_SET_CHANENABLESTATE.
const (
	chanEnabled  byte = 0x01
	chanDisabled byte = 0x02
)

// DeviceInfo requests the controller identification block.
func (c *Controller) DeviceInfo(ctx context.Context) (DeviceInfo, error) {
	msg, err := c.query(ctx, c.short(message.HwReqInfo, 0, 0), message.HwGetInfo, false)
	if err != nil {
		return DeviceInfo{}, err
	}

	v := msg.Values
	fw := v.Bytes("firmware")

	return DeviceInfo{
		Serial:          uint32(v.Int("serial")), //nolint:gosec // u32 field
		Model:           cString(v.Bytes("model")),
		Type:            v.Uint16("type"),
		FirmwareVersion: fmt.Sprintf("%d.%d.%d", fw[2], fw[1], fw[0]),
		Notes:           cString(v.Bytes("notes")),
		HardwareVersion: v.Uint16("hw_version"),
		ModState:        v.Uint16("mod_state"),
		Channels:        v.Uint16("channels"),
	}, nil
}

// EnableChannel disables flash programming mode and enables the channel.
func (c *Controller) EnableChannel(ctx context.Context) error {
	if err := c.send(ctx, c.short(message.HwNoFlashProgramming, 0, 0), false); err != nil {
		return err
	}
	if err := c.send(ctx, c.short(message.ModSetChanEnableState, c.addr.Channel, chanEnabled), true); err != nil {
		return err
	}
	c.logger.Info("apt: channel enabled")

	return nil
}

// DisableChannel disables the channel.
func (c *Controller) DisableChannel(ctx context.Context) error {
	if err := c.send(ctx, c.short(message.ModSetChanEnableState, c.addr.Channel, chanDisabled), true); err != nil {
		return err
	}
	c.logger.Info("apt: channel disabled")

	return nil
}

// ChannelEnabled reports whether the channel is enabled.
func (c *Controller) ChannelEnabled(ctx context.Context) (bool, error) {
	msg, err := c.query(ctx, c.short(message.ModReqChanEnableState, c.addr.Channel, 0), message.ModGetChanEnableState, false)
	if err != nil {
		return false, err
	}

	return msg.Header.Param2 == chanEnabled, nil
}

// Position returns the current position in mm. Stale input is drained first.
func (c *Controller) Position(ctx context.Context) (float64, error) {
	msg, err := c.query(ctx, c.short(message.MotReqPosCounter, c.addr.Channel, 0), message.MotGetPosCounter, true)
	if err != nil {
		return 0, err
	}

	return c.sf.DistanceFromRaw(msg.Values.Int(message.FieldPosition)), nil
}

// SetPositionCounter overwrites the position counter with mm without moving the stage.
func (c *Controller) SetPositionCounter(ctx context.Context, mm float64) error {
	raw, err := c.sf.DistanceToRaw(mm)
	if err != nil {
		return err
	}

	return c.set(ctx, message.MotSetPosCounter, message.Values{
		message.FieldChannel:  c.addr.Channel,
		message.FieldPosition: raw,
	}, true)
}

// VelocityParams returns the velocity profile.
func (c *Controller) VelocityParams(ctx context.Context) (VelocityParams, error) {
	msg, err := c.query(ctx, c.short(message.MotReqVelParams, c.addr.Channel, 0), message.MotGetVelParams, false)
	if err != nil {
		return VelocityParams{}, err
	}

	v := msg.Values

	return VelocityParams{
		MinVelocity:  c.sf.VelocityFromRaw(v.Int("min_velocity")),
		Acceleration: c.sf.AccelerationFromRaw(v.Int("acceleration")),
		MaxVelocity:  c.sf.VelocityFromRaw(v.Int("max_velocity")),
	}, nil
}

// SetVelocityParams sets the velocity profile.
func (c *Controller) SetVelocityParams(ctx context.Context, p VelocityParams) error {
	minVel, err := c.sf.VelocityToRaw(p.MinVelocity)
	if err != nil {
		return err
	}
	accel, err := c.sf.AccelerationToRaw(p.Acceleration)
	if err != nil {
		return err
	}
	maxVel, err := c.sf.VelocityToRaw(p.MaxVelocity)
	if err != nil {
		return err
	}

	return c.set(ctx, message.MotSetVelParams, message.Values{
		message.FieldChannel: c.addr.Channel,
		"min_velocity":       minVel,
		"acceleration":       accel,
		"max_velocity":       maxVel,
	}, true)
}

// LimitSwitchParams returns the travel limit configuration.
func (c *Controller) LimitSwitchParams(ctx context.Context) (LimitSwitchParams, error) {
	msg, err := c.query(ctx, c.short(message.MotReqLimSwitchParams, c.addr.Channel, 0), message.MotGetLimSwitchParams, false)
	if err != nil {
		return LimitSwitchParams{}, err
	}

	v := msg.Values

	return LimitSwitchParams{
		CWHard:   HardLimitMode(v.Uint16("cw_hard")),
		CCWHard:  HardLimitMode(v.Uint16("ccw_hard")),
		CWSoft:   c.sf.DistanceFromRaw(v.Int("cw_soft")),
		CCWSoft:  c.sf.DistanceFromRaw(v.Int("ccw_soft")),
		SoftMode: SoftLimitMode(v.Uint16("soft_mode")),
	}, nil
}

// SetLimitSwitchParams sets the travel limit configuration. A zero SoftMode
// selects SoftLimitStopImmediate.
func (c *Controller) SetLimitSwitchParams(ctx context.Context, p LimitSwitchParams) error {
	cw, err := c.sf.UnsignedDistanceToRaw(p.CWSoft)
	if err != nil {
		return err
	}
	ccw, err := c.sf.UnsignedDistanceToRaw(p.CCWSoft)
	if err != nil {
		return err
	}

	mode := p.SoftMode
	if mode == 0 {
		mode = SoftLimitStopImmediate
	}

	return c.set(ctx, message.MotSetLimSwitchParams, message.Values{
		message.FieldChannel: c.addr.Channel,
		"cw_hard":            uint16(p.CWHard),
		"ccw_hard":           uint16(p.CCWHard),
		"cw_soft":            cw,
		"ccw_soft":           ccw,
		"soft_mode":          uint16(mode),
	}, true)
}

// PowerParams returns the rest and move phase power.
func (c *Controller) PowerParams(ctx context.Context) (PowerParams, error) {
	msg, err := c.query(ctx, c.short(message.MotReqPowerParams, c.addr.Channel, 0), message.MotGetPowerParams, false)
	if err != nil {
		return PowerParams{}, err
	}

	return PowerParams{
		Rest: msg.Values.Uint16("rest"),
		Move: msg.Values.Uint16("move"),
	}, nil
}

// SetPowerParams sets the rest and move phase power, each at most 100 percent.
func (c *Controller) SetPowerParams(ctx context.Context, p PowerParams) error {
	if p.Rest > 100 || p.Move > 100 {
		return fmt.Errorf("%w: power rest=%d%% move=%d%%", ErrInvalidArgument, p.Rest, p.Move)
	}

	return c.set(ctx, message.MotSetPowerParams, message.Values{
		message.FieldChannel: c.addr.Channel,
		"rest":               p.Rest,
		"move":               p.Move,
	}, true)
}

// Backlash returns the backlash distance in mm.
func (c *Controller) Backlash(ctx context.Context) (float64, error) {
	msg, err := c.query(ctx, c.short(message.MotReqGenMoveParams, c.addr.Channel, 0), message.MotGetGenMoveParams, false)
	if err != nil {
		return 0, err
	}

	return c.sf.DistanceFromRaw(msg.Values.Int("backlash")), nil
}

// SetBacklash sets the backlash distance in mm.
func (c *Controller) SetBacklash(ctx context.Context, mm float64) error {
	raw, err := c.sf.DistanceToRaw(mm)
	if err != nil {
		return err
	}

	return c.set(ctx, message.MotSetGenMoveParams, message.Values{
		message.FieldChannel: c.addr.Channel,
		"backlash":           raw,
	}, true)
}

// HomeParams returns the homing configuration.
func (c *Controller) HomeParams(ctx context.Context) (HomeParams, error) {
	msg, err := c.query(ctx, c.short(message.MotReqHomeParams, c.addr.Channel, 0), message.MotGetHomeParams, false)
	if err != nil {
		return HomeParams{}, err
	}

	v := msg.Values

	return HomeParams{
		Direction:   HomeDirection(v.Uint16("direction")),
		LimitSwitch: HomeLimitSwitch(v.Uint16("limit_switch")),
		Velocity:    c.sf.VelocityFromRaw(v.Int("velocity")),
		Offset:      c.sf.DistanceFromRaw(v.Int("offset")),
	}, nil
}

// SetHomeParams sets the homing configuration. Zero Direction and LimitSwitch
// select HomeReverse and HomeLimitHardReverse.
func (c *Controller) SetHomeParams(ctx context.Context, p HomeParams) error {
	vel, err := c.sf.VelocityToRaw(p.Velocity)
	if err != nil {
		return err
	}
	offset, err := c.sf.DistanceToRaw(p.Offset)
	if err != nil {
		return err
	}

	dir := p.Direction
	if dir == 0 {
		dir = HomeReverse
	}
	sw := p.LimitSwitch
	if sw == 0 {
		sw = HomeLimitHardReverse
	}

	return c.set(ctx, message.MotSetHomeParams, message.Values{
		message.FieldChannel: c.addr.Channel,
		"direction":          uint16(dir),
		"limit_switch":       uint16(sw),
		"velocity":           vel,
		"offset":             offset,
	}, true)
}

// MoveHome homes the stage and waits for MOT_MOVE_HOMED within the home timeout.
func (c *Controller) MoveHome(ctx context.Context) error {
	c.logger.Info("apt: homing stage")
	return c.await(ctx, c.short(message.MotMoveHome, c.addr.Channel, 0), message.MotMoveHomed, c.homeTimeout)
}

// MoveAbsolute moves to position mm and waits for MOT_MOVE_COMPLETED within the move timeout.
func (c *Controller) MoveAbsolute(ctx context.Context, mm float64) error {
	raw, err := c.sf.DistanceToRaw(mm)
	if err != nil {
		return err
	}

	req, err := c.long(message.MotMoveAbsolute, message.Values{
		message.FieldChannel:  c.addr.Channel,
		message.FieldPosition: raw,
	})
	if err != nil {
		return err
	}
	c.logger.Info("apt: moving stage", "position", mm)

	return c.await(ctx, req, message.MotMoveCompleted, c.moveTimeout)
}

// MoveRelative moves by distance mm and waits for MOT_MOVE_COMPLETED within the move timeout.
func (c *Controller) MoveRelative(ctx context.Context, mm float64) error {
	raw, err := c.sf.DistanceToRaw(mm)
	if err != nil {
		return err
	}

	req, err := c.long(message.MotMoveRelative, message.Values{
		message.FieldChannel: c.addr.Channel,
		"distance":           raw,
	})
	if err != nil {
		return err
	}
	c.logger.Info("apt: moving stage", "distance", mm)

	return c.await(ctx, req, message.MotMoveCompleted, c.moveTimeout)
}

// cString returns b up to the first NUL with surrounding spaces removed.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(bytes.TrimSpace(b))
}

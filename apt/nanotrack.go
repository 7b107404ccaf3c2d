package apt

import (
	"context"
	"fmt"

	"github.com/arloliu/go-apt/message"
	"github.com/arloliu/go-apt/units"
)

// NanoTrack verbs address the whole unit, not a stage channel, and the unit
// accepts the next command without a settle delay.

// NanoTrackMode returns the tracking state and axis mode.
func (c *Controller) NanoTrackMode(ctx context.Context) (NanoTrackStatus, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTMode, 0, 0), message.PzGetNTMode, false)
	if err != nil {
		return NanoTrackStatus{}, err
	}

	return NanoTrackStatus{
		State: NanoTrackState(msg.Header.Param1),
		Mode:  NanoTrackMode(msg.Header.Param2),
	}, nil
}

// SetNanoTrackMode requests a tracking state.
func (c *Controller) SetNanoTrackMode(ctx context.Context, mode SetMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: nanotrack mode %s", ErrInvalidArgument, mode)
	}

	return c.send(ctx, c.short(message.PzSetNTMode, byte(mode), 0), false)
}

// FeedbackSource returns the selected feedback input.
func (c *Controller) FeedbackSource(ctx context.Context) (FeedbackSource, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTFeedbackSrc, 0, 0), message.PzGetNTFeedbackSrc, false)
	if err != nil {
		return 0, err
	}

	return FeedbackSource(msg.Header.Param1), nil
}

// SetFeedbackSource selects the feedback input.
func (c *Controller) SetFeedbackSource(ctx context.Context, src FeedbackSource) error {
	if !src.Valid() {
		return fmt.Errorf("%w: feedback source %s", ErrInvalidArgument, src)
	}

	return c.send(ctx, c.short(message.PzSetNTFeedbackSrc, byte(src), 0), false)
}

// DiodeReading returns the amplifier reading. Stale input is drained first.
func (c *Controller) DiodeReading(ctx context.Context) (DiodeReading, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTTIAReading, 0, 0), message.PzGetNTTIAReading, true)
	if err != nil {
		return DiodeReading{}, err
	}

	v := msg.Values
	rel := v.Uint16("rel_reading")

	return DiodeReading{
		Absolute:    v.Float("abs_reading"),
		Relative:    units.RelativeReading(rel),
		RelativeRaw: rel,
		Range:       v.Uint16("range"),
		UnderOver:   v.Uint16("under_over"),
	}, nil
}

// CircleParams returns the scan circle configuration.
func (c *Controller) CircleParams(ctx context.Context) (CircleParams, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTCircParams, 0x01, 0), message.PzGetNTCircParams, false)
	if err != nil {
		return CircleParams{}, err
	}

	v := msg.Values

	return CircleParams{
		DiameterMode: CircleDiameterMode(v.Uint16("dia_mode")),
		Diameter:     v.Uint16("dia_sw"),
		Frequency:    units.CircleFrequency(v.Uint16("osc_freq")),
		MinDiameter:  v.Uint16("min_dia"),
		MaxDiameter:  v.Uint16("max_dia"),
		AdjustType:   v.Uint16("adjust_type"),
	}, nil
}

// SetCircleParams sets the scan circle configuration.
func (c *Controller) SetCircleParams(ctx context.Context, p CircleParams) error {
	osc, err := units.CircleFrequencyToRaw(p.Frequency)
	if err != nil {
		return err
	}

	return c.set(ctx, message.PzSetNTCircParams, message.Values{
		"dia_mode":    uint16(p.DiameterMode),
		"dia_sw":      p.Diameter,
		"osc_freq":    osc,
		"min_dia":     p.MinDiameter,
		"max_dia":     p.MaxDiameter,
		"adjust_type": p.AdjustType,
	}, false)
}

// DiameterTable returns the circle diameter lookup table.
func (c *Controller) DiameterTable(ctx context.Context) (DiameterTable, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTCircDiaLUT, 0, 0), message.PzGetNTCircDiaLUT, false)
	if err != nil {
		return DiameterTable{}, err
	}

	var t DiameterTable
	t.Lead[0] = msg.Values.Uint16("lead0")
	t.Lead[1] = msg.Values.Uint16("lead1")
	for i := range t.Entries {
		t.Entries[i] = msg.Values.Uint16(message.LUTField(i))
	}

	return t, nil
}

// SetDiameterTable writes the circle diameter lookup table.
func (c *Controller) SetDiameterTable(ctx context.Context, t DiameterTable) error {
	values := message.Values{
		"lead0": t.Lead[0],
		"lead1": t.Lead[1],
	}
	for i, e := range t.Entries {
		values[message.LUTField(i)] = e
	}

	return c.set(ctx, message.PzSetNTCircDiaLUT, values, false)
}

// CircleHomePosition returns the scan circle home position.
func (c *Controller) CircleHomePosition(ctx context.Context) (CirclePosition, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTCircHomePos, 0, 0), message.PzGetNTCircHomePos, false)
	if err != nil {
		return CirclePosition{}, err
	}

	return CirclePosition{A: msg.Values.Uint16("pos_a"), B: msg.Values.Uint16("pos_b")}, nil
}

// SetCircleHomePosition sets the scan circle home position.
func (c *Controller) SetCircleHomePosition(ctx context.Context, p CirclePosition) error {
	return c.set(ctx, message.PzSetNTCircHomePos, message.Values{
		"pos_a": p.A,
		"pos_b": p.B,
	}, false)
}

// MoveCircleHome moves the scan circle to its home position.
func (c *Controller) MoveCircleHome(ctx context.Context) error {
	return c.send(ctx, c.short(message.PzMoveNTCircToHomePos, 0, 0), false)
}

// CircleCentre returns the current scan circle centre and the reading there.
func (c *Controller) CircleCentre(ctx context.Context) (CircleCentre, error) {
	msg, err := c.query(ctx, c.short(message.PzReqNTCircCentrePos, 0x01, 0), message.PzGetNTCircCentrePos, false)
	if err != nil {
		return CircleCentre{}, err
	}

	v := msg.Values
	rel := v.Uint16("rel_reading")

	return CircleCentre{
		Position:    CirclePosition{A: v.Uint16("pos_a"), B: v.Uint16("pos_b")},
		Absolute:    int32(v.Int("abs_reading")), //nolint:gosec // i32 field
		Relative:    units.RelativeReading(rel),
		RelativeRaw: rel,
		Range:       v.Uint16("range"),
		UnderOver:   v.Uint16("under_over"),
	}, nil
}

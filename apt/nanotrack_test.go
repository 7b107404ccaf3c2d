package apt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-apt/message"
	"github.com/arloliu/go-apt/units"
)

func TestController_NanoTrackMode(t *testing.T) {
	ctrl, port := newTestController(t)
	serve(port, device{message.PzReqNTMode: {shortReply(message.PzGetNTMode, 0x04, 0x01)}})

	st, err := ctrl.NanoTrackMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NanoTrackStatus{State: StateTrackSignalOK, Mode: ModeDualAxis}, st)
	assert.Equal(t, []byte{0x04, 0x06, 0x00, 0x00, 0x50, 0x01}, port.LastWrite())
}

func TestController_SetNanoTrackMode(t *testing.T) {
	ctrl, port := newTestController(t)

	require.NoError(t, ctrl.SetNanoTrackMode(context.Background(), SetTrackHorizontal))
	assert.Equal(t, []byte{0x03, 0x06, 0x04, 0x00, 0x50, 0x01}, port.LastWrite())

	err := ctrl.SetNanoTrackMode(context.Background(), SetMode(9))
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Len(t, port.Writes(), 1)
}

func TestController_FeedbackSource(t *testing.T) {
	ctrl, port := newTestController(t)
	serve(port, device{message.PzReqNTFeedbackSrc: {shortReply(message.PzGetNTFeedbackSrc, 0x03, 0x00)}})

	src, err := ctrl.FeedbackSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FeedbackExt2V, src)
	assert.Equal(t, []byte{0x3C, 0x06, 0x00, 0x00, 0x50, 0x01}, port.LastWrite())

	require.NoError(t, ctrl.SetFeedbackSource(context.Background(), FeedbackTIA))
	assert.Equal(t, []byte{0x3B, 0x06, 0x01, 0x00, 0x50, 0x01}, port.LastWrite())

	require.ErrorIs(t, ctrl.SetFeedbackSource(context.Background(), 0), ErrInvalidArgument)
}

func TestController_DiodeReading(t *testing.T) {
	ctrl, port := newTestController(t)
	port.Queue([]byte{0xFF, 0xFF})
	serve(port, device{
		message.PzReqNTTIAReading: {longReply(t, message.PzGetNTTIAReading, message.Values{
			"abs_reading": 1.25,
			"rel_reading": 16383,
			"range":       5,
			"under_over":  0,
		})},
	})

	r, err := ctrl.DiodeReading(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.25, r.Absolute, 1e-6)
	assert.InDelta(t, 0.5003, r.Relative, 0.001)
	assert.Equal(t, uint16(16383), r.RelativeRaw)
	assert.Equal(t, uint16(5), r.Range)
	assert.Equal(t, []byte{0x39, 0x06, 0x00, 0x00, 0x50, 0x01}, port.LastWrite())
}

func TestController_CircleParams(t *testing.T) {
	ctrl, port := newTestController(t)
	serve(port, device{
		message.PzReqNTCircParams: {longReply(t, message.PzGetNTCircParams, message.Values{
			"dia_mode":    2,
			"dia_sw":      50000,
			"osc_freq":    120,
			"min_dia":     2000,
			"max_dia":     32000,
			"adjust_type": 1,
		})},
	})

	p, err := ctrl.CircleParams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x19, 0x06, 0x01, 0x00, 0x50, 0x01}, port.LastWrite())
	assert.Equal(t, CircleDiameterAbsPower, p.DiameterMode)
	assert.InDelta(t, 58.333, p.Frequency, 0.001)

	want := DefaultCircleParams()
	assert.Equal(t, want.Diameter, p.Diameter)
	assert.Equal(t, want.MinDiameter, p.MinDiameter)
	assert.Equal(t, want.MaxDiameter, p.MaxDiameter)
	assert.Equal(t, want.AdjustType, p.AdjustType)
}

func TestController_SetCircleParams(t *testing.T) {
	ctrl, port := newTestController(t)

	require.NoError(t, ctrl.SetCircleParams(context.Background(), DefaultCircleParams()))

	frame := port.LastWrite()
	assert.Equal(t, []byte{0x18, 0x06, 0x0C, 0x00, 0xD0, 0x01}, frame[:6])
	v := decodeWritten(t, frame, message.PzSetNTCircParams)
	assert.Equal(t, int64(2), v.Int("dia_mode"))
	assert.Equal(t, int64(50000), v.Int("dia_sw"))
	assert.Equal(t, int64(120), v.Int("osc_freq"))
	assert.Equal(t, int64(2000), v.Int("min_dia"))
	assert.Equal(t, int64(32000), v.Int("max_dia"))
	assert.Equal(t, int64(1), v.Int("adjust_type"))

	err := ctrl.SetCircleParams(context.Background(), CircleParams{Frequency: 0})
	require.ErrorIs(t, err, units.ErrValueOutOfRange)
}

func TestController_DiameterTable(t *testing.T) {
	ctrl, port := newTestController(t)

	values := message.Values{"lead0": 1, "lead1": 0}
	for i := range message.DiameterLUTSize {
		values[message.LUTField(i)] = 1000 * (i + 1)
	}
	reply := longReply(t, message.PzGetNTCircDiaLUT, values)
	serve(port, device{message.PzReqNTCircDiaLUT: {reply}})

	table, err := ctrl.DiameterTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [2]uint16{1, 0}, table.Lead)
	assert.Equal(t, uint16(1000), table.Entries[0])
	assert.Equal(t, uint16(14000), table.Entries[13])

	// writing the table back reproduces the payload with the set ID
	require.NoError(t, ctrl.SetDiameterTable(context.Background(), table))
	frame := port.LastWrite()
	assert.Equal(t, []byte{0x21, 0x06, 0x20, 0x00, 0xD0, 0x01}, frame[:6])
	assert.Equal(t, reply[6:], frame[6:])
}

func TestController_CircleHomePosition(t *testing.T) {
	ctrl, port := newTestController(t)
	serve(port, device{
		message.PzReqNTCircHomePos: {longReply(t, message.PzGetNTCircHomePos, message.Values{"pos_a": 32000, "pos_b": 31000})},
	})

	pos, err := ctrl.CircleHomePosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CirclePosition{A: 32000, B: 31000}, pos)

	require.NoError(t, ctrl.SetCircleHomePosition(context.Background(), CirclePosition{A: 32000, B: 32000}))
	assert.Equal(t, []byte{0x09, 0x06, 0x04, 0x00, 0xD0, 0x01, 0x00, 0x7D, 0x00, 0x7D}, port.LastWrite())

	require.NoError(t, ctrl.MoveCircleHome(context.Background()))
	assert.Equal(t, []byte{0x12, 0x06, 0x00, 0x00, 0x50, 0x01}, port.LastWrite())
}

func TestController_CircleCentre(t *testing.T) {
	ctrl, port := newTestController(t)
	serve(port, device{
		message.PzReqNTCircCentrePos: {longReply(t, message.PzGetNTCircCentrePos, message.Values{
			"pos_a":       30000,
			"pos_b":       34000,
			"abs_reading": -12,
			"rel_reading": 32767,
			"range":       3,
			"under_over":  1,
		})},
	})

	c, err := ctrl.CircleCentre(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x13, 0x06, 0x01, 0x00, 0x50, 0x01}, port.LastWrite())
	assert.Equal(t, CirclePosition{A: 30000, B: 34000}, c.Position)
	assert.Equal(t, int32(-12), c.Absolute)
	assert.InDelta(t, 1.0, c.Relative, 1e-9)
	assert.Equal(t, uint16(3), c.Range)
	assert.Equal(t, uint16(1), c.UnderOver)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Track (signal low)", StateTrackSignalLow.String())
	assert.Equal(t, "NanoTrackState(9)", NanoTrackState(9).String())
	assert.Equal(t, "Vertical", ModeVertical.String())
	assert.Equal(t, "TrackVertical", SetTrackVertical.String())
	assert.Equal(t, "Ext10V", FeedbackExt10V.String())
	assert.Equal(t, "Reverse", HomeReverse.String())
	assert.Equal(t, "HardForward", HomeLimitHardForward.String())
	assert.Equal(t, "BreakOnContact", HardLimitBreak.String())
	assert.Equal(t, "StopProfiled", SoftLimitStopProfiled.String())
	assert.Equal(t, "LUT", CircleDiameterLUT.String())
	assert.False(t, SetMode(0).Valid())
	assert.True(t, FeedbackExt5V.Valid())
}

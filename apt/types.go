package apt

import "fmt"

// DeviceInfo is the identification block reported by a controller.
type DeviceInfo struct {
	Serial          uint32
	Model           string
	Type            uint16
	FirmwareVersion string
	Notes           string
	HardwareVersion uint16
	ModState        uint16
	Channels        uint16
}

// VelocityParams is a trapezoidal velocity profile in mm/s and mm/s².
type VelocityParams struct {
	MinVelocity  float64
	Acceleration float64
	MaxVelocity  float64
}

// PowerParams holds the phase power of a stepper drive, in percent.
type PowerParams struct {
	Rest uint16
	Move uint16
}

// HomeParams configures the homing sequence.
type HomeParams struct {
	Direction   HomeDirection
	LimitSwitch HomeLimitSwitch
	// Velocity in mm/s.
	Velocity float64
	// Offset from the limit switch to the home position, in mm.
	Offset float64
}

// LimitSwitchParams configures the hardware and software travel limits.
type LimitSwitchParams struct {
	CWHard  HardLimitMode
	CCWHard HardLimitMode
	// CWSoft and CCWSoft are the software limits in mm.
	CWSoft   float64
	CCWSoft  float64
	SoftMode SoftLimitMode
}

// NanoTrackStatus is the reported tracking state and mode.
type NanoTrackStatus struct {
	State NanoTrackState
	Mode  NanoTrackMode
}

// DiodeReading is a transimpedance amplifier reading.
type DiodeReading struct {
	Absolute float64
	// Relative is the reading as a fraction of full scale.
	Relative    float64
	RelativeRaw uint16
	Range       uint16
	UnderOver   uint16
}

// CircleParams configures the NanoTrack scan circle.
type CircleParams struct {
	DiameterMode CircleDiameterMode
	Diameter     uint16
	// Frequency of the circle oscillation in Hz.
	Frequency   float64
	MinDiameter uint16
	MaxDiameter uint16
	AdjustType  uint16
}

// DefaultCircleParams returns the scan circle settings used by the vendor tool:
// absolute-power diameter adjustment between 2000 and 32000 at 7000/120 Hz.
func DefaultCircleParams() CircleParams {
	return CircleParams{
		DiameterMode: CircleDiameterAbsPower,
		Diameter:     50000,
		Frequency:    7000.0 / 120,
		MinDiameter:  2000,
		MaxDiameter:  32000,
		AdjustType:   1,
	}
}

// DiameterTable is the circle diameter lookup table. Lead holds the two words
// that precede the entries on the wire; they are reported and written back
// unchanged.
type DiameterTable struct {
	Lead    [2]uint16
	Entries [14]uint16
}

// CirclePosition is a position of the scan circle in raw piezo coordinates.
type CirclePosition struct {
	A uint16
	B uint16
}

// CircleCentre is the current centre of the scan circle with the reading taken there.
type CircleCentre struct {
	Position    CirclePosition
	Absolute    int32
	Relative    float64
	RelativeRaw uint16
	Range       uint16
	UnderOver   uint16
}

// NanoTrackState is the tracking state reported by PZ_GET_NTMODE.
type NanoTrackState uint8

const (
	StatePiezo          NanoTrackState = 0x01
	StateLatch          NanoTrackState = 0x02
	StateTrackSignalLow NanoTrackState = 0x03
	StateTrackSignalOK  NanoTrackState = 0x04
)

func (s NanoTrackState) String() string {
	switch s {
	case StatePiezo:
		return "Piezo"
	case StateLatch:
		return "Latch"
	case StateTrackSignalLow:
		return "Track (signal low)"
	case StateTrackSignalOK:
		return "Track (signal OK)"
	default:
		return fmt.Sprintf("NanoTrackState(%d)", uint8(s))
	}
}

// NanoTrackMode is the tracking axis mode reported by PZ_GET_NTMODE.
type NanoTrackMode uint8

const (
	ModeDualAxis   NanoTrackMode = 0x01
	ModeHorizontal NanoTrackMode = 0x02
	ModeVertical   NanoTrackMode = 0x03
)

func (m NanoTrackMode) String() string {
	switch m {
	case ModeDualAxis:
		return "DualAxis"
	case ModeHorizontal:
		return "Horizontal"
	case ModeVertical:
		return "Vertical"
	default:
		return fmt.Sprintf("NanoTrackMode(%d)", uint8(m))
	}
}

// SetMode is the state requested with PZ_SET_NTMODE.
type SetMode uint8

const (
	SetPiezo           SetMode = 0x01
	SetLatch           SetMode = 0x02
	SetTrack           SetMode = 0x03
	SetTrackHorizontal SetMode = 0x04
	SetTrackVertical   SetMode = 0x05
)

func (m SetMode) String() string {
	switch m {
	case SetPiezo:
		return "Piezo"
	case SetLatch:
		return "Latch"
	case SetTrack:
		return "Track"
	case SetTrackHorizontal:
		return "TrackHorizontal"
	case SetTrackVertical:
		return "TrackVertical"
	default:
		return fmt.Sprintf("SetMode(%d)", uint8(m))
	}
}

// Valid reports whether m is a known mode.
func (m SetMode) Valid() bool { return m >= SetPiezo && m <= SetTrackVertical }

// FeedbackSource selects the NanoTrack feedback input.
type FeedbackSource uint8

const (
	FeedbackTIA    FeedbackSource = 0x01 // transimpedance amplifier, optical fibre input
	FeedbackExt1V  FeedbackSource = 0x02
	FeedbackExt2V  FeedbackSource = 0x03
	FeedbackExt5V  FeedbackSource = 0x04
	FeedbackExt10V FeedbackSource = 0x05
)

func (f FeedbackSource) String() string {
	switch f {
	case FeedbackTIA:
		return "TIA"
	case FeedbackExt1V:
		return "Ext1V"
	case FeedbackExt2V:
		return "Ext2V"
	case FeedbackExt5V:
		return "Ext5V"
	case FeedbackExt10V:
		return "Ext10V"
	default:
		return fmt.Sprintf("FeedbackSource(%d)", uint8(f))
	}
}

// Valid reports whether f is a known source.
func (f FeedbackSource) Valid() bool { return f >= FeedbackTIA && f <= FeedbackExt10V }

// HomeDirection is the direction of travel while homing.
type HomeDirection uint16

const (
	HomeForward HomeDirection = 1
	HomeReverse HomeDirection = 2
)

func (d HomeDirection) String() string {
	switch d {
	case HomeForward:
		return "Forward"
	case HomeReverse:
		return "Reverse"
	default:
		return fmt.Sprintf("HomeDirection(%d)", uint16(d))
	}
}

// HomeLimitSwitch is the limit switch used as the homing reference.
type HomeLimitSwitch uint16

const (
	HomeLimitHardReverse HomeLimitSwitch = 1
	HomeLimitHardForward HomeLimitSwitch = 4
)

func (s HomeLimitSwitch) String() string {
	switch s {
	case HomeLimitHardReverse:
		return "HardReverse"
	case HomeLimitHardForward:
		return "HardForward"
	default:
		return fmt.Sprintf("HomeLimitSwitch(%d)", uint16(s))
	}
}

// HardLimitMode is the behaviour of a hardware limit switch.
type HardLimitMode uint16

const (
	HardLimitIgnore HardLimitMode = 1
	HardLimitMake   HardLimitMode = 2
	HardLimitBreak  HardLimitMode = 3
)

func (m HardLimitMode) String() string {
	switch m {
	case HardLimitIgnore:
		return "Ignore"
	case HardLimitMake:
		return "MakeOnContact"
	case HardLimitBreak:
		return "BreakOnContact"
	default:
		return fmt.Sprintf("HardLimitMode(%d)", uint16(m))
	}
}

// SoftLimitMode is the behaviour at a software limit.
type SoftLimitMode uint16

const (
	SoftLimitIgnore        SoftLimitMode = 1
	SoftLimitStopImmediate SoftLimitMode = 2
	SoftLimitStopProfiled  SoftLimitMode = 3
)

func (m SoftLimitMode) String() string {
	switch m {
	case SoftLimitIgnore:
		return "Ignore"
	case SoftLimitStopImmediate:
		return "StopImmediate"
	case SoftLimitStopProfiled:
		return "StopProfiled"
	default:
		return fmt.Sprintf("SoftLimitMode(%d)", uint16(m))
	}
}

// CircleDiameterMode selects how the scan circle diameter is adjusted.
type CircleDiameterMode uint16

const (
	CircleDiameterSoftware CircleDiameterMode = 1
	CircleDiameterAbsPower CircleDiameterMode = 2
	CircleDiameterLUT      CircleDiameterMode = 3
)

func (m CircleDiameterMode) String() string {
	switch m {
	case CircleDiameterSoftware:
		return "Software"
	case CircleDiameterAbsPower:
		return "AbsPower"
	case CircleDiameterLUT:
		return "LUT"
	default:
		return fmt.Sprintf("CircleDiameterMode(%d)", uint16(m))
	}
}

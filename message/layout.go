package message

import (
	"fmt"
	"sort"
)

// Kind is the wire type of a payload field.
type Kind uint8

const (
	KindUint8 Kind = iota + 1
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindFloat32
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "u8"
	case KindUint16:
		return "u16"
	case KindInt16:
		return "i16"
	case KindUint32:
		return "u32"
	case KindInt32:
		return "i32"
	case KindFloat32:
		return "f32"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field describes one payload field.
type Field struct {
	Name string
	Kind Kind
	// Len is the block length of a KindBytes field; it is ignored for other kinds.
	Len int
}

// Size returns the wire size of the field in bytes.
func (f Field) Size() int {
	switch f.Kind {
	case KindUint8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindBytes:
		return f.Len
	default:
		return 0
	}
}

func u16(name string) Field { return Field{Name: name, Kind: KindUint16} }
func u32(name string) Field { return Field{Name: name, Kind: KindUint32} }
func i32(name string) Field { return Field{Name: name, Kind: KindInt32} }
func f32(name string) Field { return Field{Name: name, Kind: KindFloat32} }
func block(name string, n int) Field { return Field{Name: name, Kind: KindBytes, Len: n} }

// Layout is the fixed frame layout of one message ID.
//
// A layout without fields describes a short (header-only) frame; its
// parameters travel in Header.Param1 and Header.Param2.
type Layout struct {
	ID     uint16
	Name   string
	Fields []Field

	payloadSize int
}

// Long reports whether frames of this layout carry a payload.
func (l *Layout) Long() bool { return len(l.Fields) > 0 }

// PayloadSize returns the payload size in bytes.
func (l *Layout) PayloadSize() int { return l.payloadSize }

// FrameSize returns the complete frame size, header included.
func (l *Layout) FrameSize() int { return HeaderSize + l.payloadSize }

// Field returns the named field.
func (l *Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s(0x%04X, %d bytes)", l.Name, l.ID, l.FrameSize())
}

func def(id uint16, name string, fields ...Field) *Layout {
	l := &Layout{ID: id, Name: name, Fields: fields}
	for _, f := range fields {
		l.payloadSize += f.Size()
	}

	return l
}

// Field names shared by several layouts.
const (
	FieldChannel  = "chan"
	FieldPosition = "position"
)

var (
	chanPosFields = []Field{u16(FieldChannel), i32(FieldPosition)}

	velFields = []Field{
		u16(FieldChannel), u32("min_velocity"), u32("acceleration"), u32("max_velocity"),
	}

	limSwitchFields = []Field{
		u16(FieldChannel), u16("cw_hard"), u16("ccw_hard"), u32("cw_soft"), u32("ccw_soft"), u16("soft_mode"),
	}

	powerFields = []Field{u16(FieldChannel), u16("rest"), u16("move")}

	backlashFields = []Field{u16(FieldChannel), i32("backlash")}

	homeFields = []Field{
		u16(FieldChannel), u16("direction"), u16("limit_switch"), u32("velocity"), i32("offset"),
	}

	circHomeFields = []Field{u16("pos_a"), u16("pos_b")}

	circParamsFields = []Field{
		u16("dia_mode"), u16("dia_sw"), u16("osc_freq"), u16("min_dia"), u16("max_dia"), u16("adjust_type"),
	}

	tiaFields = []Field{f32("abs_reading"), u16("rel_reading"), u16("range"), u16("under_over")}
)

// DiameterLUTSize is the number of entries of the NanoTrack circle diameter
// lookup table.
const DiameterLUTSize = 14

// LUTField returns the field name of diameter table entry i (0-based).
func LUTField(i int) string { return fmt.Sprintf("lut%d", i+1) }

func diaLUTFields() []Field {
	fields := []Field{u16("lead0"), u16("lead1")}
	for i := 0; i < DiameterLUTSize; i++ {
		fields = append(fields, u16(LUTField(i)))
	}

	return fields
}

// layouts is the single source of truth for every supported frame.
var layouts = []*Layout{
	def(HwReqInfo, "HW_REQ_INFO"),
	def(HwGetInfo, "HW_GET_INFO",
		u32("serial"), block("model", 8), u16("type"), block("firmware", 4),
		block("notes", 60), u16("hw_version"), u16("mod_state"), u16("channels"),
	),
	def(HwNoFlashProgramming, "HW_NO_FLASH_PROGRAMMING"),

	def(ModSetChanEnableState, "MOD_SET_CHANENABLESTATE"),
	def(ModReqChanEnableState, "MOD_REQ_CHANENABLESTATE"),
	def(ModGetChanEnableState, "MOD_GET_CHANENABLESTATE"),

	def(MotSetPosCounter, "MOT_SET_POSCOUNTER", chanPosFields...),
	def(MotReqPosCounter, "MOT_REQ_POSCOUNTER"),
	def(MotGetPosCounter, "MOT_GET_POSCOUNTER", chanPosFields...),

	def(MotSetVelParams, "MOT_SET_VELPARAMS", velFields...),
	def(MotReqVelParams, "MOT_REQ_VELPARAMS"),
	def(MotGetVelParams, "MOT_GET_VELPARAMS", velFields...),

	def(MotSetLimSwitchParams, "MOT_SET_LIMSWITCHPARAMS", limSwitchFields...),
	def(MotReqLimSwitchParams, "MOT_REQ_LIMSWITCHPARAMS"),
	def(MotGetLimSwitchParams, "MOT_GET_LIMSWITCHPARAMS", limSwitchFields...),

	def(MotSetPowerParams, "MOT_SET_POWERPARAMS", powerFields...),
	def(MotReqPowerParams, "MOT_REQ_POWERPARAMS"),
	def(MotGetPowerParams, "MOT_GET_POWERPARAMS", powerFields...),

	def(MotSetGenMoveParams, "MOT_SET_GENMOVEPARAMS", backlashFields...),
	def(MotReqGenMoveParams, "MOT_REQ_GENMOVEPARAMS"),
	def(MotGetGenMoveParams, "MOT_GET_GENMOVEPARAMS", backlashFields...),

	def(MotSetHomeParams, "MOT_SET_HOMEPARAMS", homeFields...),
	def(MotReqHomeParams, "MOT_REQ_HOMEPARAMS"),
	def(MotGetHomeParams, "MOT_GET_HOMEPARAMS", homeFields...),

	def(MotMoveHome, "MOT_MOVE_HOME"),
	def(MotMoveHomed, "MOT_MOVE_HOMED"),
	def(MotMoveRelative, "MOT_MOVE_RELATIVE", u16(FieldChannel), i32("distance")),
	def(MotMoveAbsolute, "MOT_MOVE_ABSOLUTE", chanPosFields...),
	def(MotMoveCompleted, "MOT_MOVE_COMPLETED"),

	def(PzSetNTMode, "PZ_SET_NTMODE"),
	def(PzReqNTMode, "PZ_REQ_NTMODE"),
	def(PzGetNTMode, "PZ_GET_NTMODE"),

	def(PzSetNTCircHomePos, "PZ_SET_NTCIRCHOMEPOS", circHomeFields...),
	def(PzReqNTCircHomePos, "PZ_REQ_NTCIRCHOMEPOS"),
	def(PzGetNTCircHomePos, "PZ_GET_NTCIRCHOMEPOS", circHomeFields...),
	def(PzMoveNTCircToHomePos, "PZ_MOVE_NTCIRCTOHOMEPOS"),
	def(PzReqNTCircCentrePos, "PZ_REQ_NTCIRCCENTREPOS"),
	def(PzGetNTCircCentrePos, "PZ_GET_NTCIRCCENTREPOS",
		u16("pos_a"), u16("pos_b"), i32("abs_reading"), u16("rel_reading"), u16("range"), u16("under_over"),
	),

	def(PzSetNTCircParams, "PZ_SET_NTCIRCPARAMS", circParamsFields...),
	def(PzReqNTCircParams, "PZ_REQ_NTCIRCPARAMS"),
	def(PzGetNTCircParams, "PZ_GET_NTCIRCPARAMS", circParamsFields...),

	def(PzSetNTCircDiaLUT, "PZ_SET_NTCIRCDIALUT", diaLUTFields()...),
	def(PzReqNTCircDiaLUT, "PZ_REQ_NTCIRCDIALUT"),
	def(PzGetNTCircDiaLUT, "PZ_GET_NTCIRCDIALUT", diaLUTFields()...),

	def(PzReqNTTIAReading, "PZ_REQ_NTTIAREADING"),
	def(PzGetNTTIAReading, "PZ_GET_NTTIAREADING", tiaFields...),
	def(PzSetNTFeedbackSrc, "PZ_SET_NTFEEDBACKSRC"),
	def(PzReqNTFeedbackSrc, "PZ_REQ_NTFEEDBACKSRC"),
	def(PzGetNTFeedbackSrc, "PZ_GET_NTFEEDBACKSRC"),
}

var registry = func() map[uint16]*Layout {
	m := make(map[uint16]*Layout, len(layouts))
	for _, l := range layouts {
		if _, dup := m[l.ID]; dup {
			panic(fmt.Sprintf("message: duplicate layout for 0x%04X", l.ID))
		}
		m[l.ID] = l
	}

	return m
}()

// Lookup returns the layout registered for id.
func Lookup(id uint16) (*Layout, bool) {
	l, ok := registry[id]
	return l, ok
}

// Layouts returns all registered layouts ordered by message ID.
func Layouts() []*Layout {
	out := make([]*Layout, len(layouts))
	copy(out, layouts)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

package message

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShort_HeaderBytes(t *testing.T) {
	// Position request on channel 1 of bay 0x50 from host 0x01.
	frame := EncodeShort(MotReqPosCounter, 0x01, 0x00, 0x50, 0x01)
	assert.Equal(t, []byte{0x11, 0x04, 0x01, 0x00, 0x50, 0x01}, frame)

	frame = EncodeShort(HwReqInfo, 0x00, 0x00, 0x50, 0x01)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 0x50, 0x01}, frame)

	frame = EncodeShort(ModSetChanEnableState, 0x01, 0x02, 0x21, 0x01)
	assert.Equal(t, []byte{0x10, 0x02, 0x01, 0x02, 0x21, 0x01}, frame)
}

func TestEncodeLong_MoveAbsolute(t *testing.T) {
	frame, err := EncodeLong(MotMoveAbsolute, 0x50, 0x01, Values{
		FieldChannel:  1,
		FieldPosition: int32(1228800),
	})
	require.NoError(t, err)
	require.Len(t, frame, 12)

	assert.Equal(t, MotMoveAbsolute, binary.LittleEndian.Uint16(frame[0:2]))
	assert.Equal(t, uint16(6), binary.LittleEndian.Uint16(frame[2:4]))
	assert.Equal(t, byte(0xD0), frame[4], "destination carries the long-form flag")
	assert.Equal(t, byte(0x01), frame[5])
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(frame[6:8]))
	assert.Equal(t, int32(1228800), int32(binary.LittleEndian.Uint32(frame[8:12])))
}

func TestEncodeLong_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     uint16
		dest   byte
		values Values
		target error
	}{
		{
			name:   "short layout",
			id:     MotMoveHome,
			dest:   0x50,
			target: ErrUnknownMessage,
		},
		{
			name:   "unregistered id",
			id:     0x7FFF,
			dest:   0x50,
			target: ErrUnknownMessage,
		},
		{
			name:   "destination over 7 bits",
			id:     MotMoveRelative,
			dest:   0xD0,
			values: Values{FieldChannel: 1, "distance": 0},
			target: ErrValueOutOfRange,
		},
		{
			name:   "missing field",
			id:     MotMoveRelative,
			dest:   0x50,
			values: Values{FieldChannel: 1},
			target: ErrFieldMissing,
		},
		{
			name:   "wrong type",
			id:     MotMoveRelative,
			dest:   0x50,
			values: Values{FieldChannel: 1, "distance": "far"},
			target: ErrFieldType,
		},
		{
			name:   "i32 overflow",
			id:     MotMoveRelative,
			dest:   0x50,
			values: Values{FieldChannel: 1, "distance": int64(math.MaxInt32) + 1},
			target: ErrValueOutOfRange,
		},
		{
			name:   "u16 negative",
			id:     MotSetPowerParams,
			dest:   0x50,
			values: Values{FieldChannel: 1, "rest": -1, "move": 50},
			target: ErrValueOutOfRange,
		},
		{
			name:   "u32 overflow",
			id:     MotSetVelParams,
			dest:   0x50,
			values: Values{FieldChannel: 1, "min_velocity": 0, "acceleration": 1, "max_velocity": uint64(math.MaxUint32) + 1},
			target: ErrValueOutOfRange,
		},
		{
			name: "block too long",
			id:   HwGetInfo,
			dest: 0x50,
			values: Values{
				"serial": 1, "model": "MST602-TOO-LONG", "type": 0, "firmware": []byte{1, 2, 3, 0},
				"notes": "", "hw_version": 1, "mod_state": 0, "channels": 2,
			},
			target: ErrValueOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeLong(tt.id, tt.dest, 0x01, tt.values)
			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestDecode_EmptyAndShort(t *testing.T) {
	for _, l := range Layouts() {
		t.Run(l.Name, func(t *testing.T) {
			_, err := Decode(nil, l.ID)
			require.ErrorIs(t, err, ErrFrameTooShort)
			require.ErrorIs(t, err, ErrFrameMalformed)

			_, err = Decode([]byte{}, l.ID)
			require.ErrorIs(t, err, ErrFrameMalformed)

			short := make([]byte, l.FrameSize()-1)
			_, err = Decode(short, l.ID)
			require.ErrorIs(t, err, ErrFrameTooShort)
		})
	}
}

func TestDecode_TooLong(t *testing.T) {
	frame := append(EncodeShort(PzGetNTMode, 1, 2, 0x01, 0x50), 0x00)
	_, err := Decode(frame, PzGetNTMode)
	require.ErrorIs(t, err, ErrFrameMalformed)
	assert.NotErrorIs(t, err, ErrFrameTooShort)
}

func TestDecode_HeaderMismatch(t *testing.T) {
	// Right size, wrong ID.
	frame := EncodeShort(PzGetNTFeedbackSrc, 1, 0, 0x01, 0x50)
	_, err := Decode(frame, PzGetNTMode)
	require.ErrorIs(t, err, ErrFrameMalformed)
	assert.Contains(t, err.Error(), "PZ_GET_NTFEEDBACKSRC")

	// Long layout received without the long-form flag.
	good, err := EncodeLong(MotGetPosCounter, 0x01, 0x50, Values{FieldChannel: 1, FieldPosition: 7})
	require.NoError(t, err)
	bad := append([]byte(nil), good...)
	bad[4] &^= LongFormFlag
	_, err = Decode(bad, MotGetPosCounter)
	require.ErrorIs(t, err, ErrFrameMalformed)

	// Declared payload length disagrees with the layout.
	bad = append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(bad[2:4], 8)
	_, err = Decode(bad, MotGetPosCounter)
	require.ErrorIs(t, err, ErrFrameMalformed)
}

func TestDecode_UnknownMessage(t *testing.T) {
	_, err := Decode(make([]byte, 6), 0x7FFF)
	require.ErrorIs(t, err, ErrUnknownMessage)
}

func TestDecode_ShortForm(t *testing.T) {
	msg, err := Decode([]byte{0x05, 0x06, 0x03, 0x01, 0x01, 0x50}, PzGetNTMode)
	require.NoError(t, err)

	assert.Equal(t, PzGetNTMode, msg.Header.ID)
	assert.Equal(t, byte(0x03), msg.Header.Param1)
	assert.Equal(t, byte(0x01), msg.Header.Param2)
	assert.Equal(t, byte(0x01), msg.Header.Dest)
	assert.Equal(t, byte(0x50), msg.Header.Source)
	assert.False(t, msg.Header.Long)
	assert.Nil(t, msg.Values)
}

func TestDecode_TIAReading(t *testing.T) {
	frame := make([]byte, 16)
	binary.LittleEndian.PutUint16(frame[0:2], PzGetNTTIAReading)
	binary.LittleEndian.PutUint16(frame[2:4], 10)
	frame[4] = 0x81
	frame[5] = 0x50
	binary.LittleEndian.PutUint32(frame[6:10], math.Float32bits(0.25))
	binary.LittleEndian.PutUint16(frame[10:12], 16383)
	binary.LittleEndian.PutUint16(frame[12:14], 3)
	binary.LittleEndian.PutUint16(frame[14:16], 1)

	msg, err := Decode(frame, PzGetNTTIAReading)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), msg.Header.Dest)
	assert.InDelta(t, 0.25, msg.Values.Float("abs_reading"), 1e-9)
	assert.Equal(t, int64(16383), msg.Values.Int("rel_reading"))
	assert.Equal(t, uint16(3), msg.Values.Uint16("range"))
	assert.Equal(t, int64(1), msg.Values.Int("under_over"))
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte{0x53, 0x04, 0x06, 0x00, 0xD0, 0x01})
	require.NoError(t, err)
	assert.Equal(t, Header{ID: MotMoveAbsolute, Dest: 0x50, Source: 0x01, Long: true, Length: 6}, h)
	assert.Contains(t, h.String(), "MOT_MOVE_ABSOLUTE")

	_, err = ParseHeader([]byte{0x53, 0x04})
	require.ErrorIs(t, err, ErrFrameTooShort)
}

func TestEncode_PicksForm(t *testing.T) {
	short, err := Encode(Header{ID: MotMoveHome, Param1: 1, Dest: 0x50, Source: 0x01}, nil)
	require.NoError(t, err)
	assert.Len(t, short, HeaderSize)

	long, err := Encode(Header{ID: MotMoveRelative, Dest: 0x50, Source: 0x01}, Values{FieldChannel: 1, "distance": -5})
	require.NoError(t, err)
	assert.Len(t, long, 12)
}

package message

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed size of every frame header.
const HeaderSize = 6

// LongFormFlag is set in the destination byte of frames that carry a payload.
const LongFormFlag byte = 0x80

// Header is the decoded 6-byte frame header.
type Header struct {
	ID uint16
	// Param1 and Param2 are the short-form parameters; both are zero for long frames.
	Param1 byte
	Param2 byte
	// Dest is the destination address with the long-form flag removed.
	Dest   byte
	Source byte
	// Long reports whether the frame carries a payload.
	Long bool
	// Length is the payload length of a long frame.
	Length uint16
}

// ParseHeader decodes the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrFrameTooShort, HeaderSize, len(data))
	}

	h := Header{
		ID:     binary.LittleEndian.Uint16(data[0:2]),
		Dest:   data[4] &^ LongFormFlag,
		Source: data[5],
		Long:   data[4]&LongFormFlag != 0,
	}
	if h.Long {
		h.Length = binary.LittleEndian.Uint16(data[2:4])
	} else {
		h.Param1 = data[2]
		h.Param2 = data[3]
	}

	return h, nil
}

func (h Header) String() string {
	if h.Long {
		return fmt.Sprintf("%s dst=0x%02X src=0x%02X len=%d", Name(h.ID), h.Dest, h.Source, h.Length)
	}

	return fmt.Sprintf("%s p1=0x%02X p2=0x%02X dst=0x%02X src=0x%02X", Name(h.ID), h.Param1, h.Param2, h.Dest, h.Source)
}

// Message is a decoded frame.
type Message struct {
	Header Header
	// Values holds the payload fields of a long frame; it is nil for short frames.
	Values Values
	Layout *Layout
}

// EncodeShort packs a header-only frame: id, param1, param2, dest and source,
// little-endian, exactly as given.
func EncodeShort(id uint16, param1, param2, dest, source byte) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], id)
	buf[2] = param1
	buf[3] = param2
	buf[4] = dest
	buf[5] = source

	return buf
}

// EncodeLong packs a frame with a payload laid out according to the layout
// registered for id. dest must be a 7-bit address; the long-form flag is added
// here.
//
// Every layout field must be present in values. Integer fields accept any Go
// integer type, float fields accept float32 and float64, and block fields accept
// []byte or string no longer than the block (shorter values are zero padded).
// A value that does not fit its field fails with ErrValueOutOfRange instead of
// being truncated.
func EncodeLong(id uint16, dest, source byte, values Values) ([]byte, error) {
	l, ok := Lookup(id)
	if !ok || !l.Long() {
		return nil, fmt.Errorf("%w: 0x%04X has no payload layout", ErrUnknownMessage, id)
	}
	if dest&LongFormFlag != 0 {
		return nil, fmt.Errorf("%w: destination 0x%02X exceeds 7 bits", ErrValueOutOfRange, dest)
	}

	buf := make([]byte, l.FrameSize())
	binary.LittleEndian.PutUint16(buf[0:2], id)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(l.PayloadSize())) //nolint:gosec // payloads are < 64 KiB
	buf[4] = dest | LongFormFlag
	buf[5] = source

	off := HeaderSize
	for _, f := range l.Fields {
		v, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrFieldMissing, l.Name, f.Name)
		}
		if err := putField(buf[off:off+f.Size()], f, v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", l.Name, f.Name, err)
		}
		off += f.Size()
	}

	return buf, nil
}

// Encode packs h and values, choosing the short or long form from the layout
// registered for h.ID. Unregistered IDs are packed in short form.
func Encode(h Header, values Values) ([]byte, error) {
	if l, ok := Lookup(h.ID); ok && l.Long() {
		return EncodeLong(h.ID, h.Dest, h.Source, values)
	}

	return EncodeShort(h.ID, h.Param1, h.Param2, h.Dest, h.Source), nil
}

// Decode parses data as a frame of message id.
//
// data must be exactly the layout's frame size. An empty or shorter input fails
// with ErrFrameTooShort, a longer input or a header that disagrees with the
// layout (wrong ID, wrong form, wrong payload length) fails with
// ErrFrameMalformed. Decode never tries to resynchronise.
func Decode(data []byte, id uint16) (*Message, error) {
	l, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownMessage, id)
	}

	if len(data) < l.FrameSize() {
		return nil, fmt.Errorf("%w: %s got %d bytes, want %d", ErrFrameTooShort, l.Name, len(data), l.FrameSize())
	}
	if len(data) > l.FrameSize() {
		return nil, fmt.Errorf("%w: %s got %d bytes, want %d", ErrFrameMalformed, l.Name, len(data), l.FrameSize())
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.ID != id {
		return nil, fmt.Errorf("%w: got message %s, want %s", ErrFrameMalformed, Name(h.ID), l.Name)
	}
	if h.Long != l.Long() {
		return nil, fmt.Errorf("%w: %s long-form flag is %t", ErrFrameMalformed, l.Name, h.Long)
	}
	if h.Long && int(h.Length) != l.PayloadSize() {
		return nil, fmt.Errorf("%w: %s payload length %d, want %d", ErrFrameMalformed, l.Name, h.Length, l.PayloadSize())
	}

	msg := &Message{Header: h, Layout: l}
	if !l.Long() {
		return msg, nil
	}

	msg.Values = make(Values, len(l.Fields))
	off := HeaderSize
	for _, f := range l.Fields {
		msg.Values[f.Name] = getField(data[off:off+f.Size()], f)
		off += f.Size()
	}

	return msg, nil
}

func getField(b []byte, f Field) any {
	switch f.Kind {
	case KindUint8:
		return int64(b[0])
	case KindUint16:
		return int64(binary.LittleEndian.Uint16(b))
	case KindInt16:
		return int64(int16(binary.LittleEndian.Uint16(b))) //nolint:gosec // two's complement reinterpretation
	case KindUint32:
		return int64(binary.LittleEndian.Uint32(b))
	case KindInt32:
		return int64(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // two's complement reinterpretation
	case KindFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		out := make([]byte, len(b))
		copy(out, b)

		return out
	}
}

func putField(b []byte, f Field, v any) error {
	switch f.Kind {
	case KindFloat32:
		fv, err := toFloat(v)
		if err != nil {
			return err
		}
		if !math.IsNaN(fv) && !math.IsInf(fv, 0) && math.Abs(fv) > math.MaxFloat32 {
			return fmt.Errorf("%w: %v exceeds float32", ErrValueOutOfRange, fv)
		}
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(fv)))

		return nil

	case KindBytes:
		var src []byte
		switch bv := v.(type) {
		case []byte:
			src = bv
		case string:
			src = []byte(bv)
		default:
			return fmt.Errorf("%w: %T for %s field", ErrFieldType, v, f.Kind)
		}
		if len(src) > len(b) {
			return fmt.Errorf("%w: %d bytes exceed block of %d", ErrValueOutOfRange, len(src), len(b))
		}
		clear(b)
		copy(b, src)

		return nil
	}

	iv, err := toInt(v)
	if err != nil {
		return err
	}

	lo, hi := intRange(f.Kind)
	if iv < lo || iv > hi {
		return fmt.Errorf("%w: %d not in %s range [%d, %d]", ErrValueOutOfRange, iv, f.Kind, lo, hi)
	}

	switch f.Kind {
	case KindUint8:
		b[0] = byte(iv)
	case KindUint16, KindInt16:
		binary.LittleEndian.PutUint16(b, uint16(iv)) //nolint:gosec // range checked above
	case KindUint32, KindInt32:
		binary.LittleEndian.PutUint32(b, uint32(iv)) //nolint:gosec // range checked above
	default:
		return fmt.Errorf("%w: unsupported kind %s", ErrFieldType, f.Kind)
	}

	return nil
}

func intRange(k Kind) (int64, int64) {
	switch k {
	case KindUint8:
		return 0, math.MaxUint8
	case KindUint16:
		return 0, math.MaxUint16
	case KindInt16:
		return math.MinInt16, math.MaxInt16
	case KindUint32:
		return 0, math.MaxUint32
	case KindInt32:
		return math.MinInt32, math.MaxInt32
	default:
		return 0, -1
	}
}

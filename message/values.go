package message

import (
	"fmt"
	"math"
)

// Values holds payload field values by field name.
//
// Decode stores int64 for integer fields, float64 for float fields and []byte
// for block fields. EncodeLong accepts any Go integer type for integer fields.
type Values map[string]any

// Int returns the named integer field, or 0 if it is absent or not an integer.
func (v Values) Int(name string) int64 {
	i, err := toInt(v[name])
	if err != nil {
		return 0
	}

	return i
}

// Uint16 returns the named integer field truncated to 16 bits.
func (v Values) Uint16(name string) uint16 {
	return uint16(v.Int(name)) //nolint:gosec // callers use it on u16 fields
}

// Float returns the named float field, or 0 if it is absent.
func (v Values) Float(name string) float64 {
	f, err := toFloat(v[name])
	if err != nil {
		return 0
	}

	return f
}

// Bytes returns the named block field, or nil if it is absent.
func (v Values) Bytes(name string) []byte {
	b, _ := v[name].([]byte)
	return b
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrValueOutOfRange, n)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrValueOutOfRange, n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %T for integer field", ErrFieldType, v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		i, err := toInt(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %T for float field", ErrFieldType, v)
		}
		return float64(i), nil
	}
}

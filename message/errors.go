package message

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameMalformed indicates a frame whose length or header does not match
	// the layout expected for its message ID. It usually signals a protocol
	// desynchronisation or a firmware mismatch.
	ErrFrameMalformed = errors.New("message: malformed frame")

	// ErrFrameTooShort indicates an empty frame or one shorter than the layout
	// requires. It also matches ErrFrameMalformed.
	ErrFrameTooShort = fmt.Errorf("%w: frame too short", ErrFrameMalformed)

	// ErrUnknownMessage indicates a message ID with no registered layout.
	ErrUnknownMessage = errors.New("message: unknown message id")

	// ErrValueOutOfRange indicates a payload value that does not fit its field.
	ErrValueOutOfRange = errors.New("message: value out of range")

	// ErrFieldMissing indicates that a payload field has no value.
	ErrFieldMissing = errors.New("message: field missing")

	// ErrFieldType indicates a payload value of an unsupported Go type.
	ErrFieldType = errors.New("message: invalid field type")
)

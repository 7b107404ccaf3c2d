package apt

import "errors"

// ErrInvalidArgument indicates a parameter rejected before anything was sent.
var ErrInvalidArgument = errors.New("apt: invalid argument")

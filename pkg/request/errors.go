package request

import "errors"

// ErrInternalServer is the message returned to clients when a handler fails.
var ErrInternalServer = errors.New("Internal server error")

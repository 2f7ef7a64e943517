package process

import "errors"

// ErrInvalidPID is returned for PIDs that would target the caller's own
// process group or init.
var ErrInvalidPID = errors.New("invalid PID")

package cmdexec

import "errors"

// ErrInvalidArgument is returned by SanitizeEnv for a malformed environment
// map. Executors check it before dispatching a command.
var ErrInvalidArgument = errors.New("invalid argument")

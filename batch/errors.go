package batch

import (
	"errors"
	"fmt"
)

var ErrInvalidParallelism = errors.New("batch: maxParallel must be at least 1")

// LaunchError is returned by RunAll when the operating system could not start
// a command. Index is 1-based.
type LaunchError struct {
	Index   int
	Command Command
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("batch: could not launch job %d (%s): %v", e.Index, e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

package batch

import "fmt"

// Command is one shell command line, e.g., a single ldsc.py regression.
type Command string

func (c Command) String() string {
	return string(c)
}

// ExitStatus is the observed outcome of one Command.
type ExitStatus struct {
	Command Command
	PID     int
	Code    int

	// 1-based position of the command in the input, and 1-based batch number
	Index int
	Batch int
}

func (e ExitStatus) Success() bool {
	return e.Code == 0
}

func (e ExitStatus) String() string {
	return fmt.Sprintf("job %d (batch %d, pid %d) exited with code %d: %s", e.Index, e.Batch, e.PID, e.Code, e.Command)
}

// Job is a handle to a launched command.
type Job interface {
	PID() int

	// Wait blocks until the process terminates and returns its exit code. A
	// non-zero exit code is not an error; the error is reserved for failures
	// to observe the process at all.
	Wait() (int, error)
}

// Launcher starts a Command without waiting for it.
type Launcher interface {
	Launch(Command) (Job, error)
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Failures returns the statuses that did not exit cleanly, preserving order.
func Failures(statuses []ExitStatus) []ExitStatus {
	out := make([]ExitStatus, 0)
	for _, s := range statuses {
		if !s.Success() {
			out = append(out, s)
		}
	}
	return out
}

package batch

import (
	"log"
	"strconv"
	"strings"
)

// Scheduler launches commands in barrier-synchronized batches.
type Scheduler struct {
	Launcher Launcher
	Logger   Logger

	// OnComplete, if set, is called once per command, in input order, right
	// after its exit status has been observed.
	OnComplete func(ExitStatus)
}

// New returns a Scheduler that logs to the standard logger.
func New(launcher Launcher) *Scheduler {
	return &Scheduler{
		Launcher: launcher,
		Logger:   log.Default(),
	}
}

// RunAll executes commands with the default shell launcher. See
// Scheduler.RunAll.
func RunAll(commands []Command, maxParallel int) ([]ExitStatus, error) {
	return New(&ShellLauncher{}).RunAll(commands, maxParallel)
}

type launched struct {
	job    Job
	status ExitStatus
}

// RunAll launches every command, at most maxParallel at a time, and returns
// one ExitStatus per command in input order.
//
// If a command cannot be launched, the jobs of the current batch that did
// start are still waited for, and their statuses are returned alongside a
// *LaunchError. No further commands are launched.
func (s *Scheduler) RunAll(commands []Command, maxParallel int) ([]ExitStatus, error) {
	if maxParallel < 1 {
		return nil, ErrInvalidParallelism
	}

	statuses := make([]ExitStatus, 0, len(commands))
	running := make([]launched, 0, maxParallel)
	batch := 1

	for i, cmd := range commands {
		index := i + 1
		s.logger().Printf("job schedule batch = %d | i = %d | Running command: %s\n", batch, index, cmd)

		job, err := s.Launcher.Launch(cmd)
		if err != nil {
			statuses = append(statuses, s.wait(running)...)
			return statuses, &LaunchError{Index: index, Command: cmd, Err: err}
		}

		running = append(running, launched{
			job: job,
			status: ExitStatus{
				Command: cmd,
				PID:     job.PID(),
				Index:   index,
				Batch:   batch,
			},
		})
		s.logger().Printf("job schedule batch = %d | i = %d | PIDs of running jobs: %s\n", batch, index, pids(running))

		if len(running) == maxParallel {
			statuses = append(statuses, s.wait(running)...)
			running = running[:0]
			batch++
		}
	}

	// Wait for the final, possibly partial, batch
	statuses = append(statuses, s.wait(running)...)

	return statuses, nil
}

// wait blocks on every job of a batch, in launch order.
func (s *Scheduler) wait(batch []launched) []ExitStatus {
	out := make([]ExitStatus, 0, len(batch))

	for _, l := range batch {
		s.logger().Printf("=========== Waiting for process: %d ===========\n", l.status.PID)

		code, err := l.job.Wait()
		if err != nil {
			s.logger().Printf("Could not observe process %d: %v\n", l.status.PID, err)
			code = -1
		}
		s.logger().Printf("Returncode = %d\n", code)

		status := l.status
		status.Code = code
		if s.OnComplete != nil {
			s.OnComplete(status)
		}
		out = append(out, status)
	}

	return out
}

func (s *Scheduler) logger() Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func pids(running []launched) string {
	out := make([]string, 0, len(running))
	for _, l := range running {
		out = append(out, strconv.Itoa(l.status.PID))
	}
	return strings.Join(out, " ")
}

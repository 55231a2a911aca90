package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/kballard/go-shellquote"
)

const DefaultShell = "/bin/sh"

// ShellLauncher runs each Command through `Shell -c`. Output goes to the
// caller's stdout and stderr unless Stdout or Stderr are set, so output of
// concurrently running jobs interleaves.
type ShellLauncher struct {
	Shell  string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer

	// VerifyExecutable makes Launch fail when the first word of the command
	// cannot be found on PATH. Without it, a missing program surfaces only as
	// exit code 127 from the shell.
	VerifyExecutable bool

	// mu serializes writes from concurrent jobs to Stdout and Stderr when
	// they are not files.
	mu sync.Mutex
}

func (l *ShellLauncher) Launch(c Command) (Job, error) {
	if l.VerifyExecutable {
		if err := verifyExecutable(c); err != nil {
			return nil, err
		}
	}

	shell := l.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.Command(shell, "-c", string(c))
	cmd.Dir = l.Dir
	if l.Env != nil {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	cmd.Stdout = l.output(l.Stdout, os.Stdout)
	cmd.Stderr = l.output(l.Stderr, os.Stderr)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &shellJob{cmd: cmd}, nil
}

// output picks the writer for one job. An *os.File is handed to the child
// directly; any other writer is shared by the copy goroutines of every
// running job, so it is wrapped with the launcher's lock.
func (l *ShellLauncher) output(w io.Writer, fallback *os.File) io.Writer {
	if w == nil {
		return fallback
	}
	if _, ok := w.(*os.File); ok {
		return w
	}
	return &lockedWriter{mu: &l.mu, w: w}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func verifyExecutable(c Command) error {
	words, err := shellquote.Split(string(c))
	if err != nil {
		return fmt.Errorf("cannot parse command: %w", err)
	}
	if len(words) == 0 {
		return errors.New("empty command")
	}

	program := words[0]
	if strings.Contains(program, "=") {
		// Leading environment assignment; leave it to the shell
		return nil
	}

	_, err = exec.LookPath(program)
	return err
}

type shellJob struct {
	cmd *exec.Cmd
}

func (j *shellJob) PID() int {
	if j.cmd.Process == nil {
		return 0
	}
	return j.cmd.Process.Pid
}

func (j *shellJob) Wait() (int, error) {
	err := j.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Mirror the shell convention for processes killed by a signal
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}

	return -1, err
}

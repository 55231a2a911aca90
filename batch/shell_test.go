package batch

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(DefaultShell); err != nil {
		t.Skip("no", DefaultShell, "on this system")
	}
}

func TestShellLauncherExitCodes(t *testing.T) {
	requireShell(t)

	var out bytes.Buffer
	s := quietScheduler(&ShellLauncher{Stdout: &out})

	statuses, err := s.RunAll(commands("true", "exit 3", "echo hello", "kill -9 $$"), 2)
	if err != nil {
		t.Fatal(err)
	}

	for i, expected := range []int{0, 3, 0, 137} {
		if statuses[i].Code != expected {
			t.Errorf("%s: got code %d, expected %d", statuses[i].Command, statuses[i].Code, expected)
		}
		if statuses[i].PID <= 0 {
			t.Errorf("%s: no pid recorded", statuses[i].Command)
		}
	}

	if !strings.Contains(out.String(), "hello") {
		t.Errorf("Expected job output on the configured writer, got %q", out.String())
	}
}

func TestShellLauncherSharedWriter(t *testing.T) {
	requireShell(t)

	var out bytes.Buffer
	s := quietScheduler(&ShellLauncher{Stdout: &out, Stderr: &out})

	var cmds []string
	for i := 0; i < 16; i++ {
		cmds = append(cmds, fmt.Sprintf("echo out%02d; echo err%02d >&2", i, i))
	}

	if _, err := s.RunAll(commands(cmds...), 8); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		for _, word := range []string{"out", "err"} {
			line := fmt.Sprintf("%s%02d\n", word, i)
			if !strings.Contains(out.String(), line) {
				t.Errorf("Expected %q in shared output, got %q", line, out.String())
			}
		}
	}
}

func TestShellLauncherMissingShell(t *testing.T) {
	s := quietScheduler(&ShellLauncher{Shell: "/nonexistent/shell"})

	_, err := s.RunAll(commands("true"), 1)
	if err == nil {
		t.Fatal("Expected a launch failure")
	}
}

func TestShellLauncherVerifyExecutable(t *testing.T) {
	requireShell(t)

	s := quietScheduler(&ShellLauncher{VerifyExecutable: true})
	if _, err := s.RunAll(commands("definitely-not-a-real-program-xyz --flag"), 1); err == nil {
		t.Error("Expected a launch failure for a missing program")
	}

	statuses, err := s.RunAll(commands("FOO=bar sh -c 'exit 0'"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !statuses[0].Success() {
		t.Errorf("Expected success, got %v", statuses[0])
	}
}

// Package shell runs external commands: user defined tasks and stylesheet preprocessors.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Executor runs a task's command and streams its output.
type Executor struct {
	// usePTY runs commands on a pseudo terminal so tools keep their colors.
	usePTY bool
}

// NewExecutor creates an Executor. Commands get a pseudo terminal when the
// process itself writes to one.
func NewExecutor() *Executor {
	return &Executor{usePTY: term.IsTerminal(int(os.Stdout.Fd()))}
}

// NewPipeExecutor creates an Executor that always uses plain pipes.
func NewPipeExecutor() *Executor {
	return &Executor{}
}

// Execute runs task.Command in task.WorkingDir and waits for it to exit.
// A task without a command succeeds immediately.
func (e *Executor) Execute(ctx context.Context, task *domain.Task, stdout, stderr io.Writer) error {
	if len(task.Command) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, task.Command[0], task.Command[1:]...) //nolint:gosec // Command comes from the project configuration
	cmd.Env = resolveEnvironment(os.Environ(), task.Environment)
	if dir := task.WorkingDir.String(); dir != "" {
		cmd.Dir = dir
	}

	var err error
	if e.usePTY {
		err = runPTY(cmd, stdout)
	} else {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		err = cmd.Run()
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "command", strings.Join(task.Command, " "))
		return zerr.With(err, "exit_code", exitCode)
	}
	return nil
}

// runPTY runs cmd on a pseudo terminal. Stdout and stderr are merged by the terminal.
func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		// Reading the master fails with EIO once the child exits.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-copied
	_ = ptmx.Close()
	return err
}

// inheritedEnvVars are the system variables passed through to commands.
var inheritedEnvVars = []string{"HOME", "PATH", "TERM", "USER", "LANG", "TMPDIR"}

// resolveEnvironment keeps the allow-listed system variables and applies task overrides.
func resolveEnvironment(sysEnv []string, taskEnv map[string]string) []string {
	env := make(map[string]string, len(inheritedEnvVars)+len(taskEnv))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok && slices.Contains(inheritedEnvVars, k) {
			env[k] = v
		}
	}
	for k, v := range taskEnv {
		env[k] = v
	}

	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"dent/internal/ui"
)

// Streams are the standard streams handed to child processes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's own standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Command is a single invocation of an external program. Nil streams
// are connected to the null device.
type Command struct {
	Argv   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Commander runs external programs. Run reports the exit code of a
// program that ran; err is only set when it could not be run at all.
// Replace runs argv in place of the current process.
type Commander interface {
	Run(ctx context.Context, cmd Command) (code int, err error)
	Replace(argv []string) error
}

// CommandError reports a command that exited unsuccessfully.
type CommandError struct {
	Argv []string
	Code int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with status %d", ui.FormatCommand(e.Argv), e.Code)
}

// ExecCommander runs programs with os/exec.
type ExecCommander struct{}

func NewExecCommander() *ExecCommander {
	return &ExecCommander{}
}

func (c *ExecCommander) Run(ctx context.Context, cmd Command) (int, error) {
	if len(cmd.Argv) == 0 {
		return -1, errors.New("empty command")
	}

	ec := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	ec.Stdin = cmd.Stdin
	ec.Stdout = cmd.Stdout
	ec.Stderr = cmd.Stderr

	err := ec.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to run %s: %w", cmd.Argv[0], err)
}

func (c *ExecCommander) Replace(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	return replaceProcess(argv)
}

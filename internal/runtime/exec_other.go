//go:build !unix

package runtime

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	denterrors "dent/internal/errors"
)

// replaceProcess runs argv as a child with this process's standard
// streams and waits for it. There is no process replacement here, so a
// non-zero exit is returned as an ExitStatus for main to exit with.
// Terminal resize and job control signals are not forwarded.
func replaceProcess(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		return &denterrors.ExitStatus{Code: code}
	}
	return fmt.Errorf("failed to run %s: %w", argv[0], err)
}

//go:build unix

package runtime

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// replaceProcess replaces the process image with argv. It returns only
// on failure.
func replaceProcess(argv []string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("cannot find %s: %w", argv[0], err)
	}
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

// Package scaffolder materializes an image build context: a fresh
// directory holding generated files with explicit permission bits.
package scaffolder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dent/internal/errors"
)

const (
	// ModeReadOnly is for files the build only reads, like the Dockerfile.
	ModeReadOnly os.FileMode = 0400
	// ModeExecutable is for generated scripts run during the build.
	ModeExecutable os.FileMode = 0500
	// ModeDir is used for an explicitly named context directory.
	ModeDir os.FileMode = 0700
)

// File is one generated file of a build context.
type File struct {
	Name    string
	Mode    os.FileMode
	Content string
}

// Scaffold creates the context directory and writes files into it in
// order. If dir is empty a unique directory named after prefix is created
// under the system temp dir; otherwise dir is created and must not exist.
//
// The returned path is set whenever the directory was created, even if
// writing a file then failed, so the caller can clean it up.
func Scaffold(dir, prefix string, files []File) (string, error) {
	dir, err := createDir(dir, prefix)
	if err != nil {
		return "", err
	}

	for _, f := range files {
		if err := writeFile(dir, f); err != nil {
			return dir, err
		}
	}

	slog.Debug("Build context ready", "dir", dir, "files", len(files))
	return dir, nil
}

func createDir(dir, prefix string) (string, error) {
	if dir == "" {
		created, err := os.MkdirTemp("", prefix+"-build-")
		if err != nil {
			return "", errors.NewFileSystemError(
				"Cannot create temporary directory for image build", err.Error(), "", err)
		}
		return created, nil
	}

	if err := os.Mkdir(dir, ModeDir); err != nil {
		suggestion := ""
		if os.IsExist(err) {
			suggestion = "Remove the stale directory or choose another --tmpdir"
		}
		return "", errors.NewFileSystemError(
			fmt.Sprintf("Cannot create build context directory %s", dir), err.Error(), suggestion, err)
	}
	return dir, nil
}

// validateName ensures a file stays inside the context directory.
func validateName(name string) error {
	if name == "" || strings.ContainsRune(name, filepath.Separator) || name == "." || name == ".." {
		return fmt.Errorf("invalid build context file name: %q", name)
	}
	return nil
}

// writeFile creates f exclusively, sets its mode, writes its content and
// a trailing newline, and closes it before returning.
func writeFile(dir string, f File) error {
	if err := validateName(f.Name); err != nil {
		return errors.NewFileSystemError("Cannot write build context", err.Error(), "", err)
	}

	path := filepath.Join(dir, f.Name)
	fail := func(err error) error {
		return errors.NewFileSystemError(
			fmt.Sprintf("Cannot write %s", path), err.Error(), "", err)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fail(err)
	}
	defer out.Close()

	if err := out.Chmod(f.Mode); err != nil {
		return fail(err)
	}
	if _, err := out.WriteString(f.Content + "\n"); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}
	return nil
}

// Remove deletes a build context directory and everything in it.
func Remove(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.NewFileSystemError(
			fmt.Sprintf("Cannot remove build context %s", dir), err.Error(), "", err)
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dent/internal/app"
	dockercli "dent/internal/runtime"
	"dent/pkg/profile"
)

// fakeCommander reports success for every command and an empty inspect
// result, so every container and image is absent.
type fakeCommander struct {
	calls    []string
	replaced []string
}

func (c *fakeCommander) Run(_ context.Context, cmd dockercli.Command) (int, error) {
	c.calls = append(c.calls, strings.Join(cmd.Argv, " "))
	if cmd.Stdout != nil && strings.Contains(strings.Join(cmd.Argv, " "), " inspect ") {
		_, _ = io.WriteString(cmd.Stdout, "[]")
	}
	return 0, nil
}

func (c *fakeCommander) Replace(argv []string) error {
	c.replaced = append(c.replaced, strings.Join(argv, " "))
	return nil
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("DENT_CONFIG", "")
	t.Setenv("DENT_LOG_DIR", dir)
	return dir
}

func runCLI(t *testing.T, commander *fakeCommander, args ...string) (int, string, string) {
	t.Helper()
	setupEnv(t)
	return runCmd(t, commander, args...)
}

func runCmd(t *testing.T, commander *fakeCommander, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	factory := app.NewFactoryWithCommander(commander, dockercli.Streams{Out: io.Discard, Err: io.Discard})
	cmd := newRootCmd(factory)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	code := execute(context.Background(), cmd, args)
	return code, stdout.String(), stderr.String()
}

func TestCheckModes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		flags   cliFlags
		wantErr string
	}{
		{"container name", []string{"dev"}, cliFlags{}, ""},
		{"list", nil, cliFlags{listImages: true}, ""},
		{"version", nil, cliFlags{version: true}, ""},
		{"nothing", nil, cliFlags{}, "is required"},
		{"name and list", []string{"dev"}, cliFlags{listImages: true}, "mutually exclusive"},
		{"name and version", []string{"dev", "ls"}, cliFlags{version: true}, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkModes(tt.args, tt.flags)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExecute_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, &fakeCommander{}, "--version")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "version dev")
}

func TestExecute_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"list with name", []string{"-L", "dev"}},
		{"list with version", []string{"-L", "--version"}},
		{"image with tag", []string{"-i", "img", "-t", "tag", "dev"}},
		{"unknown flag", []string{"--bogus", "dev"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commander := &fakeCommander{}
			code, stdout, stderr := runCLI(t, commander, tt.args...)

			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "usage:")
			assert.Empty(t, commander.calls)
		})
	}
}

func TestExecute_ListBaseImages(t *testing.T) {
	commander := &fakeCommander{}
	code, stdout, _ := runCLI(t, commander, "-L")

	assert.Equal(t, 0, code)
	assert.Equal(t, profile.DefaultCatalog().Names(), strings.Fields(stdout))
	assert.Empty(t, commander.calls, "listing must not touch docker")
}

func TestExecute_UnwritableLogStillRuns(t *testing.T) {
	dir := setupEnv(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dent.log"), 0700))

	code, stdout, stderr := runCmd(t, &fakeCommander{}, "-L")

	assert.Equal(t, 0, code)
	assert.Equal(t, profile.DefaultCatalog().Names(), strings.Fields(stdout))
	assert.Contains(t, stderr, "warning: logging disabled")
	assert.NotContains(t, stderr, "usage:")
}

func TestListBaseImages_Table(t *testing.T) {
	var buf bytes.Buffer
	catalog := profile.NewCatalog(
		profile.Profile{Name: "alpine:3.20", Presetup: "apk add bash", Useradd: profile.UseraddAlpine},
		profile.Profile{Name: "debian:12"},
	)

	require.NoError(t, listBaseImages(&buf, catalog, true))

	out := buf.String()
	assert.Contains(t, out, "alpine:3.20")
	assert.Contains(t, out, "apk add bash")
	assert.Contains(t, out, "debian:12")
	assert.Contains(t, out, profile.UseraddGeneric)
}

func TestExecute_PrintFile(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     string
	}{
		{"setup-user generic", []string{"-P", "setup-user", "dev"}, 0, "useradd --create-home"},
		{"setup-user alpine", []string{"-P", "setup-user", "-B", "alpine:3.20", "dev"}, 0, "adduser -D"},
		{"setup-pkg", []string{"-P", "setup-pkg", "dev"}, 0, "packages=("},
		{"dockerfile", []string{"-P", "dockerfile", "-B", "debian:12", "dev"}, 0, "FROM debian:12"},
		{"dockerfile without base image", []string{"-P", "dockerfile", "dev"}, 1, ""},
		{"unknown file", []string{"-P", "bogus", "dev"}, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commander := &fakeCommander{}
			code, stdout, stderr := runCLI(t, commander, tt.args...)

			assert.Equal(t, tt.wantCode, code)
			assert.Empty(t, commander.calls, "printing a file must not touch docker")
			if tt.wantCode != 0 {
				assert.NotEmpty(t, stderr)
				return
			}
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestExecute_DryRunCreate(t *testing.T) {
	commander := &fakeCommander{}
	code, stdout, stderr := runCLI(t, commander, "-n", "-B", "debian:12", "dev", "ls", "-la")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Creating new container")
	assert.Contains(t, stderr, "docker build")
	assert.Contains(t, stderr, "docker run")
	assert.Contains(t, stderr, "dev ls -la")
	assert.Empty(t, commander.replaced)
	for _, call := range commander.calls {
		assert.NotContains(t, call, "docker run", "dry run must not create containers")
	}
}

func TestExecute_MissingBaseImageIsFatal(t *testing.T) {
	commander := &fakeCommander{}
	code, _, stderr := runCLI(t, commander, "-n", "dev")

	// An absent container with no base image cannot be built.
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-B base-image")
}

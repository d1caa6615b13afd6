package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	denterrors "dent/internal/errors"
	"dent/pkg/profile"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettings_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DENT_CONFIG", "")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "docker", s.Docker)
	assert.Empty(t, s.BaseImages)
}

func TestLoadSettings_MissingExplicitFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, denterrors.ErrConfigInvalid))
	assert.Contains(t, err.Error(), "Settings file not found")
}

func TestLoadSettings_ValidFile(t *testing.T) {
	path := writeSettings(t, `docker: podman
log_dir: /var/tmp/dent
base_images:
  - name: alpine:3.21
    presetup: apk add bash
    useradd: alpine
  - name: debian:12
    presetup: apt-get update
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "podman", s.Docker)
	assert.Equal(t, "/var/tmp/dent", s.LogDir)
	require.Len(t, s.BaseImages, 2)
	assert.Equal(t, "alpine:3.21", s.BaseImages[0].Name)

	catalog := s.Catalog()
	p, ok := catalog.Lookup("alpine:3.21")
	assert.True(t, ok)
	assert.Equal(t, profile.UseraddAlpine, p.UseraddStrategy())

	p, ok = catalog.Lookup("debian:12")
	assert.True(t, ok)
	assert.Equal(t, "apt-get update", p.Presetup)

	names := catalog.Names()
	assert.Equal(t, "alpine:3.21", names[len(names)-1])
	assert.Equal(t, len(profile.DefaultCatalog().Names())+1, len(names))
}

func TestLoadSettings_EnvironmentOverride(t *testing.T) {
	path := writeSettings(t, "docker: podman\n")
	t.Setenv("DENT_DOCKER", "/usr/local/bin/docker")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/docker", s.Docker)
}

func TestLoadSettings_ConfigFromEnvironment(t *testing.T) {
	path := writeSettings(t, "docker: nerdctl\n")
	t.Setenv("DENT_CONFIG", path)

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "nerdctl", s.Docker)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		message string
	}{
		{
			name: "bad useradd",
			yaml: `base_images:
  - name: alpine:3.21
    useradd: busybox
`,
			message: "must be one of: generic alpine",
		},
		{
			name: "missing profile name",
			yaml: `base_images:
  - presetup: apk add bash
`,
			message: "is required but missing",
		},
		{
			name:    "relative log dir",
			yaml:    "log_dir: logs\n",
			message: "must be an absolute path",
		},
		{
			name:    "malformed yaml",
			yaml:    "docker: \"unclosed\n",
			message: "Failed to read settings file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, denterrors.ErrConfigInvalid))

			var dentErr *denterrors.DentError
			require.True(t, errors.As(err, &dentErr))
			assert.Contains(t, dentErr.Context+" "+dentErr.Cause, tt.message)
		})
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/dent/config.yaml", DefaultSettingsPath())
}

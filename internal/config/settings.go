package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"dent/internal/errors"
	"dent/pkg/profile"
)

// EnvPrefix is the prefix of environment variables that override
// settings, e.g. DENT_DOCKER.
const EnvPrefix = "DENT"

// Settings are the user's persistent preferences, read from an optional
// YAML file.
type Settings struct {
	Docker     string            `mapstructure:"docker" validate:"required"`
	LogDir     string            `mapstructure:"log_dir" validate:"omitempty,abspath"`
	BaseImages []profile.Profile `mapstructure:"base_images" validate:"dive"`
}

// DefaultSettingsPath returns ~/.config/dent/config.yaml, honouring
// XDG_CONFIG_HOME.
func DefaultSettingsPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dent", "config.yaml")
}

// LoadSettings reads the settings file at path. An empty path means
// $DENT_CONFIG, then the default location. A missing default file is not
// an error; a missing file that was asked for explicitly is.
func LoadSettings(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultSettingsPath()
	}

	v := viper.New()
	v.SetDefault("docker", "docker")
	v.SetDefault("log_dir", "")
	v.SetDefault("base_images", []map[string]any{})
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.NewConfigError(
					fmt.Sprintf("Failed to read settings file %s", path),
					err.Error(),
					"Check the file is valid YAML",
					err,
				)
			}
		} else if explicit {
			return nil, errors.NewConfigError(
				fmt.Sprintf("Settings file not found: %s", path),
				"",
				"Create the file or drop the --config option",
				err,
			)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.NewConfigError(
			fmt.Sprintf("Failed to parse settings file %s", path),
			err.Error(),
			"",
			err,
		)
	}

	if err := validate.Struct(&s); err != nil {
		return nil, errors.NewConfigError(
			fmt.Sprintf("Invalid settings file %s", path),
			formatValidationError(err),
			"",
			nil,
		)
	}

	return &s, nil
}

// Catalog returns the built-in base image catalog extended, and where
// names collide overridden, by the settings' base images.
func (s *Settings) Catalog() *profile.Catalog {
	c := profile.DefaultCatalog()
	for _, p := range s.BaseImages {
		c.Add(p)
	}
	return c
}

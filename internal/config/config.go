// Package config turns command line intent into a fully resolved,
// immutable RunConfig and loads the optional settings file.
package config

import (
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/mount"

	"dent/internal/errors"
	"dent/pkg/profile"
)

// DefaultCommand is run in the container when none is given.
var DefaultCommand = []string{"bash", "-l"}

// Options is the raw intent gathered from the command line.
type Options struct {
	ContainerName string
	Image         string
	BaseImage     string
	Tag           string
	ShareRO       []string
	ShareRW       []string
	RunOpts       []string
	DryRun        bool
	Quiet         bool
	ForceRebuild  bool
	KeepTmpdir    bool
	Progress      bool
	Tmpdir        string
	Command       []string
}

// RunConfig is the resolved configuration for one run. It is produced by
// Resolve and never modified afterwards.
type RunConfig struct {
	Progname      string `validate:"required"`
	ContainerName string `validate:"required"`
	Image         string `validate:"excluded_with=Tag"`
	BaseImage     string
	Tag           string
	ShareRO       []string `validate:"dive,abspath"`
	ShareRW       []string `validate:"dive,abspath"`
	RunOpts       []string
	DryRun        bool
	Quiet         bool
	ForceRebuild  bool
	KeepTmpdir    bool
	Progress      bool
	Tmpdir        string
	Command       []string `validate:"min=1"`

	Account Account
	Profile profile.Profile `validate:"-"`
}

// Resolve applies every default to opts and returns the validated
// configuration. It performs no I/O.
func Resolve(opts Options, account Account, catalog *profile.Catalog, progname string) (*RunConfig, error) {
	cfg := &RunConfig{
		Progname:      progname,
		ContainerName: opts.ContainerName,
		Image:         opts.Image,
		BaseImage:     opts.BaseImage,
		Tag:           opts.Tag,
		ShareRO:       resolveShares(account.Home, opts.ShareRO),
		ShareRW:       resolveShares(account.Home, opts.ShareRW),
		RunOpts:       append([]string(nil), opts.RunOpts...),
		DryRun:        opts.DryRun,
		Quiet:         opts.Quiet,
		ForceRebuild:  opts.ForceRebuild,
		KeepTmpdir:    opts.KeepTmpdir,
		Progress:      opts.Progress,
		Tmpdir:        opts.Tmpdir,
		Command:       append([]string(nil), opts.Command...),
		Account:       account,
	}

	if len(cfg.Command) == 0 {
		cfg.Command = append([]string(nil), DefaultCommand...)
	}

	if cfg.Image == "" && cfg.Tag == "" {
		cfg.Tag = account.Login
	}

	if catalog == nil {
		catalog = profile.DefaultCatalog()
	}
	cfg.Profile, _ = catalog.Lookup(cfg.BaseImage)

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid options",
			formatValidationError(err),
			"Run with --help to see the accepted options",
			nil,
		)
	}

	return cfg, nil
}

// resolveShares makes every path absolute, taking relative paths as
// relative to home.
func resolveShares(home string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(home, p)
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}

// ImageAlias is the name:tag of the image the container is created from:
// the explicit image if one was given, else one derived from the base
// image and tag.
func (c *RunConfig) ImageAlias() (string, error) {
	if c.Image != "" {
		return c.Image, nil
	}
	if c.BaseImage == "" {
		return "", errors.NewConfigError(
			"No such container; supply -B base-image to build.",
			"",
			"",
			nil,
		)
	}
	return c.Progname + "/" + strings.ReplaceAll(c.BaseImage, ":", ".") + ":" + c.Tag, nil
}

// NotOnExisting reports whether any option that only takes effect when a
// container is created was given.
func (c *RunConfig) NotOnExisting() bool {
	return c.BaseImage != "" ||
		len(c.RunOpts) > 0 ||
		len(c.ShareRO) > 0 ||
		len(c.ShareRW) > 0
}

// Mounts returns the bind mounts for the shared paths, read-only first.
// Each path is mounted at the same location inside the container.
func (c *RunConfig) Mounts() []mount.Mount {
	mounts := make([]mount.Mount, 0, len(c.ShareRO)+len(c.ShareRW))
	for _, p := range c.ShareRO {
		mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: p, Target: p, ReadOnly: true})
	}
	for _, p := range c.ShareRW {
		mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: p, Target: p})
	}
	return mounts
}

// PresetupCommand is the command run before the setup scripts in the
// image build. It is a no-op unless the base image profile names one.
func (c *RunConfig) PresetupCommand() string {
	if c.Profile.Presetup == "" {
		return "true"
	}
	return c.Profile.Presetup
}

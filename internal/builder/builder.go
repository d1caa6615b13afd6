// Package builder builds the image a new container is created from.
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"dent/internal/config"
	"dent/internal/errors"
	"dent/internal/scaffolder"
	"dent/internal/templates"
	"dent/internal/ui"
	"dent/pkg/runtime"
)

// Builder builds container images.
type Builder interface {
	Build(ctx context.Context, cfg *config.RunConfig) error
}

// ImageBuilder builds an image from the generated Dockerfile and setup
// scripts through the runtime gateway.
type ImageBuilder struct {
	gateway runtime.Gateway
	console *ui.Console
}

func NewImageBuilder(gateway runtime.Gateway, console *ui.Console) *ImageBuilder {
	return &ImageBuilder{gateway: gateway, console: console}
}

// ContextFiles renders the files of a build context for cfg.
func ContextFiles(cfg *config.RunConfig) ([]scaffolder.File, error) {
	params := templates.ParamsFor(cfg)

	dockerfile, err := templates.Dockerfile(params)
	if err != nil {
		return nil, err
	}
	setupPkg, err := templates.SetupPkg()
	if err != nil {
		return nil, err
	}
	setupUser, err := templates.SetupUser(params)
	if err != nil {
		return nil, err
	}

	return []scaffolder.File{
		{Name: "Dockerfile", Mode: scaffolder.ModeReadOnly, Content: dockerfile},
		{Name: "setup-pkg", Mode: scaffolder.ModeExecutable, Content: setupPkg},
		{Name: "setup-user", Mode: scaffolder.ModeExecutable, Content: setupUser},
	}, nil
}

// Build tags a freshly built image with cfg's image alias. The build
// context is removed afterwards, whether or not the build succeeded,
// unless cfg.KeepTmpdir is set.
func (b *ImageBuilder) Build(ctx context.Context, cfg *config.RunConfig) (err error) {
	alias, err := cfg.ImageAlias()
	if err != nil {
		return err
	}

	files, err := ContextFiles(cfg)
	if err != nil {
		return err
	}

	dir, err := scaffolder.Scaffold(cfg.Tmpdir, cfg.Progname, files)
	if dir != "" && !cfg.KeepTmpdir {
		defer func() {
			if rmErr := scaffolder.Remove(dir); rmErr != nil {
				slog.Warn("Failed to remove build context", "dir", dir, "error", rmErr)
				if err == nil {
					err = rmErr
				}
			}
		}()
	}
	if err != nil {
		return err
	}
	b.console.Progress(fmt.Sprintf("Setting up context for image build in %s", dir), cfg.KeepTmpdir)
	slog.Info("Build context created", "dir", dir, "keep", cfg.KeepTmpdir)

	if cfg.ForceRebuild {
		b.console.Progress(fmt.Sprintf("Removing image '%s' and forcing full rebuild", alias), false)
		if err := b.gateway.RemoveImage(ctx, alias); err != nil {
			// rmi fails when there is no image to remove
			slog.Debug("Ignoring image removal failure", "image", alias, "error", err)
		}
	}

	b.console.Progress(fmt.Sprintf("Building image '%s'", alias), false)
	err = b.gateway.Build(ctx, runtime.BuildOptions{
		Tag:        alias,
		ContextDir: dir,
		Progress:   cfg.Progress,
		Quiet:      cfg.Quiet,
		NoCache:    cfg.ForceRebuild,
	})
	if err != nil {
		return errors.NewBuildError(
			fmt.Sprintf("Error building image '%s' from '%s'", alias, cfg.BaseImage),
			err.Error(),
			"Re-run with -V and --keep-tmpdir to see the full build output and context",
			err,
		)
	}

	slog.Info("Image built", "image", alias, "base", cfg.BaseImage)
	return nil
}

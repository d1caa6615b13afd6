package app

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"

	"dent/internal/builder"
	"dent/internal/config"
	"dent/internal/errors"
	dockercli "dent/internal/runtime"
	"dent/internal/ui"
	"dent/pkg/runtime"
)

// KeepAliveCommand is the initial command of every created container.
// The real work happens through exec, since a container's initial command
// cannot be changed later; 2^31-1 seconds stays clear of 32-bit time
// overflow.
var KeepAliveCommand = []string{"/bin/sleep", "2147483647"}

// CreateStage creates and starts a new container, building its image
// first if needed.
type CreateStage struct {
	cfg     *config.RunConfig
	gateway runtime.Gateway
	builder builder.Builder
	console *ui.Console
}

func NewCreateStage(cfg *config.RunConfig, gateway runtime.Gateway, b builder.Builder, console *ui.Console) *CreateStage {
	return &CreateStage{cfg: cfg, gateway: gateway, builder: b, console: console}
}

func (s *CreateStage) Name() string {
	return StageCreate
}

func (s *CreateStage) Execute(ctx context.Context, session *Session) error {
	alias, err := s.cfg.ImageAlias()
	if err != nil {
		return err
	}

	if err := s.ensureImage(ctx, alias); err != nil {
		return err
	}

	login := s.cfg.Account.Login
	s.console.Progress(fmt.Sprintf("Creating new container '%s' from image '%s' for user %s",
		s.cfg.ContainerName, alias, login), false)

	opts := runtime.RunOptions{
		Name:     s.cfg.ContainerName,
		Hostname: s.cfg.ContainerName,
		Image:    alias,
		Env: []string{
			"HOST_HOSTNAME=" + s.cfg.Account.Hostname,
			"LOGNAME=" + login,
			"USER=" + login,
		},
		Mounts:    s.cfg.Mounts(),
		ExtraArgs: s.cfg.RunOpts,
		Command:   KeepAliveCommand,
	}

	if err := s.gateway.Run(ctx, opts); err != nil {
		var cmdErr *dockercli.CommandError
		if goerrors.As(err, &cmdErr) {
			return errors.NewRuntimeError(
				fmt.Sprintf("Failed to create container %s with command:\n%s",
					s.cfg.ContainerName, ui.FormatCommand(cmdErr.Argv)),
				"",
				"",
				err,
			)
		}
		return errors.NewRuntimeError(
			fmt.Sprintf("Failed to create container %s", s.cfg.ContainerName), err.Error(), "", err)
	}

	slog.Info("Container created", "container", s.cfg.ContainerName, "image", alias)
	return nil
}

// ensureImage builds the image unless it can be used as is. An image that
// exists locally and an image named explicitly with -i are separate
// reasons to skip the build; for the latter `docker run` pulls it.
func (s *CreateStage) ensureImage(ctx context.Context, alias string) error {
	img, err := s.gateway.InspectImage(ctx, alias)
	if err != nil {
		return err
	}
	imageExists := img != nil
	explicitImage := s.cfg.Image != ""

	switch {
	case s.cfg.ForceRebuild:
		return s.builder.Build(ctx, s.cfg)
	case imageExists, explicitImage:
		s.console.Progress(fmt.Sprintf("Using existing image '%s'", alias), false)
		slog.Debug("Skipping image build", "image", alias, "exists", imageExists, "explicit", explicitImage)
		return nil
	default:
		return s.builder.Build(ctx, s.cfg)
	}
}

// Package app implements the container orchestrator: it observes the
// named container and drives it to a running state before entering it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/term"

	"dent/internal/builder"
	"dent/internal/config"
	"dent/internal/errors"
	"dent/internal/ui"
	"dent/pkg/runtime"
)

const (
	// DefaultStartAttempts and DefaultStartInterval bound the wait for a
	// container to reach the running state to about five seconds.
	DefaultStartAttempts = 50
	DefaultStartInterval = 100 * time.Millisecond
)

// Orchestrator enters a container, creating, building or starting it as
// needed.
type Orchestrator struct {
	cfg     *config.RunConfig
	gateway runtime.Gateway
	builder builder.Builder
	console *ui.Console

	isTerminal    func() bool
	timer         backoff.Timer
	startAttempts int
	startInterval time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTerminalCheck replaces the check for whether stdin is a terminal.
func WithTerminalCheck(fn func() bool) Option {
	return func(o *Orchestrator) { o.isTerminal = fn }
}

// WithTimer replaces the timer used to wait between start polls.
func WithTimer(t backoff.Timer) Option {
	return func(o *Orchestrator) { o.timer = t }
}

func NewOrchestrator(cfg *config.RunConfig, gateway runtime.Gateway, b builder.Builder, console *ui.Console, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:           cfg,
		gateway:       gateway,
		builder:       b,
		console:       console,
		isTerminal:    stdinIsTerminal,
		startAttempts: DefaultStartAttempts,
		startInterval: DefaultStartInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Plan inspects the container and returns the stages that bring it to a
// running state and enter it. Options that only apply when creating a
// container are rejected for an existing one before anything changes.
func (o *Orchestrator) Plan(ctx context.Context) (*Session, []Stage, error) {
	name := o.cfg.ContainerName

	c, err := o.gateway.InspectContainer(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	observed := runtime.StateOf(c)
	session := newSession(name, observed)
	slog.Info("Observed container", "container", name, "state", observed.String())

	var stages []Stage
	switch {
	case observed == runtime.StateAbsent:
		stages = append(stages, NewCreateStage(o.cfg, o.gateway, o.builder, o.console))
	case o.cfg.NotOnExisting():
		return session, nil, errors.NewIncompatibleOptionsError(
			"-B, -r and -s options cannot affect existing containers",
			"",
			fmt.Sprintf("Remove container '%s' first to recreate it with new options", name),
			nil,
		)
	case observed == runtime.StateStopped:
		stages = append(stages, NewStartStage(name, o.gateway, o.console))
	}

	stages = append(stages,
		NewWaitStage(name, o.gateway, o.timer, o.startAttempts, o.startInterval),
		NewExecStage(name, o.cfg.Command, o.gateway, o.isTerminal),
	)
	return session, stages, nil
}

// Enter runs the planned stages. On success in normal mode the process
// has been replaced and Enter does not return; in dry-run mode it returns
// nil after printing the exec command.
func (o *Orchestrator) Enter(ctx context.Context) error {
	session, stages, err := o.Plan(ctx)
	if err != nil {
		return err
	}
	slog.Info("Entering container", "container", session.Container, "stages", StageNames(stages), "dryRun", o.gateway.DryRun())

	for _, stage := range stages {
		if err := stage.Execute(ctx, session); err != nil {
			slog.Error("Stage failed", "stage", stage.Name(), "container", session.Container, "error", err)
			return err
		}
		session.complete(stage.Name())
	}
	return nil
}

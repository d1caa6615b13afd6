package app

import (
	"context"
	"fmt"

	"dent/internal/errors"
	"dent/internal/ui"
	"dent/pkg/runtime"
)

// StartStage starts a stopped container.
type StartStage struct {
	name    string
	gateway runtime.Gateway
	console *ui.Console
}

func NewStartStage(name string, gateway runtime.Gateway, console *ui.Console) *StartStage {
	return &StartStage{name: name, gateway: gateway, console: console}
}

func (s *StartStage) Name() string {
	return StageStart
}

func (s *StartStage) Execute(ctx context.Context, session *Session) error {
	s.console.Progress(fmt.Sprintf("Starting container '%s'", s.name), false)

	if err := s.gateway.Start(ctx, s.name); err != nil {
		return errors.NewRuntimeError("Couldn't start container", err.Error(), "", err)
	}
	return nil
}

package app

import (
	"context"
	goerrors "errors"
	"fmt"

	"dent/internal/errors"
	"dent/pkg/runtime"
)

// ExecStage runs the command in the container in place of this process.
type ExecStage struct {
	name       string
	command    []string
	gateway    runtime.Gateway
	isTerminal func() bool
}

func NewExecStage(name string, command []string, gateway runtime.Gateway, isTerminal func() bool) *ExecStage {
	return &ExecStage{name: name, command: command, gateway: gateway, isTerminal: isTerminal}
}

func (s *ExecStage) Name() string {
	return StageExec
}

func (s *ExecStage) Execute(ctx context.Context, session *Session) error {
	err := s.gateway.Exec(ctx, runtime.ExecOptions{
		Container: s.name,
		TTY:       s.isTerminal(),
		Command:   s.command,
	})
	if err == nil {
		return nil
	}

	var status *errors.ExitStatus
	if goerrors.As(err, &status) {
		return err
	}
	return errors.NewRuntimeError(fmt.Sprintf("Cannot exec into container '%s'", s.name), err.Error(), "", err)
}

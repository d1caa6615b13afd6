package app

import (
	"log/slog"

	"dent/pkg/runtime"
)

// Stage names, in the order they can run.
const (
	StageCreate = "create"
	StageStart  = "start"
	StageWait   = "wait"
	StageExec   = "exec"
)

// Session records what one run observed and did.
type Session struct {
	Container string
	Observed  runtime.ContainerState
	Completed []string
}

func newSession(container string, observed runtime.ContainerState) *Session {
	return &Session{Container: container, Observed: observed}
}

// complete records a finished stage.
func (s *Session) complete(stage string) {
	s.Completed = append(s.Completed, stage)
	slog.Debug("Stage completed", "stage", stage, "container", s.Container)
}

// LastStage returns the name of the last completed stage, or "" if none.
func (s *Session) LastStage() string {
	if len(s.Completed) == 0 {
		return ""
	}
	return s.Completed[len(s.Completed)-1]
}

// StageNames returns the names of stages in order.
func StageNames(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.Name())
	}
	return names
}

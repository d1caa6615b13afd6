package app

import (
	"context"
)

// Stage is one step of entering a container. The orchestrator picks the
// stages to run from the observed container state.
type Stage interface {
	Name() string
	Execute(ctx context.Context, session *Session) error
}

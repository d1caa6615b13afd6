package app

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dent/internal/errors"
	"dent/pkg/runtime"
)

// errNotRunning marks a poll that found the container stopped.
var errNotRunning = goerrors.New("container not running yet")

// WaitStage waits for a container to reach the running state. docker
// may return from start before the container runs, and the container may
// exit immediately.
type WaitStage struct {
	name     string
	gateway  runtime.Gateway
	timer    backoff.Timer
	attempts int
	interval time.Duration
}

// NewWaitStage returns a stage polling up to attempts times, interval
// apart. A nil timer uses the wall clock.
func NewWaitStage(name string, gateway runtime.Gateway, timer backoff.Timer, attempts int, interval time.Duration) *WaitStage {
	return &WaitStage{
		name:     name,
		gateway:  gateway,
		timer:    timer,
		attempts: attempts,
		interval: interval,
	}
}

func (s *WaitStage) Name() string {
	return StageWait
}

// Execute polls until the container runs. A container that disappears
// fails at once; one that stays stopped fails when the attempts run out.
// In dry-run mode nothing was started, so there is nothing to wait for.
func (s *WaitStage) Execute(ctx context.Context, session *Session) error {
	if s.gateway.DryRun() {
		return nil
	}

	attempt := 0
	poll := func() error {
		attempt++
		c, err := s.gateway.InspectContainer(ctx, s.name)
		if err != nil {
			return backoff.Permanent(err)
		}

		switch runtime.StateOf(c) {
		case runtime.StateRunning:
			slog.Debug("Container running", "container", s.name, "attempt", attempt)
			return nil
		case runtime.StateAbsent:
			return backoff.Permanent(errors.NewVanishedError(
				fmt.Sprintf("Container '%s' was started but is no longer running", s.name),
				"",
				"",
				nil,
			))
		}
		return errNotRunning
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), uint64(s.attempts-1)),
		ctx,
	)
	err := backoff.RetryNotifyWithTimer(poll, policy, nil, s.timer)
	if !goerrors.Is(err, errNotRunning) {
		return err
	}

	return errors.NewStartTimeoutError(
		fmt.Sprintf("Cannot start container '%s'", s.name),
		fmt.Sprintf("still not running after %d checks %s apart", s.attempts, s.interval),
		fmt.Sprintf("Check `docker logs %s`", s.name),
		nil,
	)
}

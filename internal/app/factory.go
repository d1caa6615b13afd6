package app

import (
	"context"

	"dent/internal/builder"
	"dent/internal/config"
	dockercli "dent/internal/runtime"
	"dent/internal/ui"
	"dent/pkg/runtime"
)

// Factory wires the gateway, builder and orchestrator for a run. The
// commander is the only way the pieces reach the outside world.
type Factory struct {
	commander dockercli.Commander
	streams   dockercli.Streams
}

// NewFactory returns a factory running real programs on the process's
// own streams.
func NewFactory() *Factory {
	return &Factory{commander: dockercli.NewExecCommander(), streams: dockercli.StdStreams()}
}

// NewFactoryWithCommander returns a factory using the given commander
// and streams.
func NewFactoryWithCommander(commander dockercli.Commander, streams dockercli.Streams) *Factory {
	return &Factory{commander: commander, streams: streams}
}

// Gateway resolves the docker invocation prefix and returns the gateway.
func (f *Factory) Gateway(ctx context.Context, settings *config.Settings, dryRun bool, console *ui.Console) (runtime.Gateway, error) {
	return dockercli.NewDockerCLI(ctx, f.commander, dockercli.Options{
		Docker:  settings.Docker,
		DryRun:  dryRun,
		Console: console,
		Streams: f.streams,
	})
}

// Orchestrator returns an orchestrator for cfg backed by a fresh gateway.
func (f *Factory) Orchestrator(ctx context.Context, cfg *config.RunConfig, settings *config.Settings, console *ui.Console, opts ...Option) (*Orchestrator, error) {
	gateway, err := f.Gateway(ctx, settings, cfg.DryRun, console)
	if err != nil {
		return nil, err
	}
	b := builder.NewImageBuilder(gateway, console)
	return NewOrchestrator(cfg, gateway, b, console, opts...), nil
}

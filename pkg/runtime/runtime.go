// Package runtime defines the narrow contract dent needs from a container
// runtime: inspect, run, start, build, rmi and exec.
package runtime

import (
	"context"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
)

// ContainerState is the observed lifecycle state of a named container.
type ContainerState int

const (
	StateAbsent ContainerState = iota
	StateStopped
	StateRunning
)

func (s ContainerState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// StateOf derives the container state from an inspect result. A nil
// result means the container does not exist.
func StateOf(c *container.InspectResponse) ContainerState {
	if c == nil {
		return StateAbsent
	}
	if c.ContainerJSONBase != nil && c.State != nil && c.State.Running {
		return StateRunning
	}
	return StateStopped
}

// RunOptions defines the parameters for creating a long-lived container.
type RunOptions struct {
	Name     string
	Hostname string
	Image    string
	Env      []string
	Mounts   []mount.Mount
	// ExtraArgs are raw `docker run` options passed through verbatim.
	ExtraArgs []string
	Command   []string
}

// BuildOptions defines the parameters for an image build.
type BuildOptions struct {
	Tag        string
	ContextDir string
	Progress   bool
	Quiet      bool
	NoCache    bool
}

// ExecOptions defines the parameters for entering a container.
type ExecOptions struct {
	Container string
	TTY       bool
	Command   []string
}

// Gateway is the contract for container operations. Inspect calls report
// absence as a nil result, never as an error. Exec does not return on
// success in normal mode: the calling process is replaced.
type Gateway interface {
	InspectContainer(ctx context.Context, name string) (*container.InspectResponse, error)
	InspectImage(ctx context.Context, ref string) (*image.InspectResponse, error)
	Run(ctx context.Context, opts RunOptions) error
	Start(ctx context.Context, name string) error
	Build(ctx context.Context, opts BuildOptions) error
	RemoveImage(ctx context.Context, ref string) error
	Exec(ctx context.Context, opts ExecOptions) error
	DryRun() bool
}

// Package runtime implements the container runtime gateway on top of the
// docker command line client.
package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"

	"dent/internal/errors"
	"dent/internal/ui"
	"dent/pkg/runtime"
)

// DefaultDocker is the runtime client binary used when none is configured.
const DefaultDocker = "docker"

// DetachKeys replace docker's default ctrl-p,ctrl-q, which collides with
// shell history navigation.
const DetachKeys = "ctrl-@,ctrl-d"

// Options configures a DockerCLI.
type Options struct {
	// Docker is the client binary, default "docker".
	Docker  string
	DryRun  bool
	Console *ui.Console
	Streams Streams
}

// DockerCLI implements runtime.Gateway by running the docker client,
// either directly or through sudo.
type DockerCLI struct {
	commander Commander
	prefix    []string
	dryRun    bool
	console   *ui.Console
	streams   Streams
}

var _ runtime.Gateway = (*DockerCLI)(nil)

// NewDockerCLI resolves the invocation prefix and returns a gateway that
// uses it for every call.
func NewDockerCLI(ctx context.Context, commander Commander, opts Options) (*DockerCLI, error) {
	if opts.Docker == "" {
		opts.Docker = DefaultDocker
	}
	if opts.Streams == (Streams{}) {
		opts.Streams = StdStreams()
	}
	if opts.Console == nil {
		opts.Console = ui.NewConsoleWithWriters("dent", false, opts.Streams.Out, opts.Streams.Err)
	}

	prefix, err := ResolvePrefix(ctx, commander, opts.Docker, opts.Streams)
	if err != nil {
		return nil, err
	}

	return &DockerCLI{
		commander: commander,
		prefix:    prefix,
		dryRun:    opts.DryRun,
		console:   opts.Console,
		streams:   opts.Streams,
	}, nil
}

// ResolvePrefix decides whether docker is run directly or with sudo. If
// `docker info` fails, `sudo -v` is run interactively so the credentials
// are cached for the rest of the run.
func ResolvePrefix(ctx context.Context, commander Commander, docker string, streams Streams) ([]string, error) {
	code, err := commander.Run(ctx, Command{Argv: []string{docker, "info"}})
	if err == nil && code == 0 {
		slog.Debug("Using docker directly", "docker", docker)
		return []string{docker}, nil
	}
	slog.Debug("docker info failed, trying sudo", "docker", docker, "code", code, "error", err)

	code, err = commander.Run(ctx, Command{
		Argv:   []string{"sudo", "-v"},
		Stdin:  streams.In,
		Stdout: streams.Out,
		Stderr: streams.Err,
	})
	if err != nil || code != 0 {
		return nil, errors.NewPrivilegeError(
			fmt.Sprintf("Cannot run `%s` as this user and cannot sudo.", docker),
			"",
			"Add yourself to the docker group or make sure sudo works",
			err,
		)
	}

	slog.Info("Using sudo for docker", "docker", docker)
	return []string{"sudo", docker}, nil
}

// Prefix returns the resolved invocation prefix.
func (d *DockerCLI) Prefix() []string {
	return append([]string(nil), d.prefix...)
}

func (d *DockerCLI) DryRun() bool {
	return d.dryRun
}

func (d *DockerCLI) command(args ...string) []string {
	argv := make([]string, 0, len(d.prefix)+len(args))
	argv = append(argv, d.prefix...)
	return append(argv, args...)
}

// mutate runs a state-changing command, or in dry-run mode only prints
// it on stderr and reports success.
func (d *DockerCLI) mutate(ctx context.Context, argv []string, stdout io.Writer) error {
	if d.dryRun {
		d.console.PrintCommand(argv)
		return nil
	}

	slog.Info("Running docker", "command", argv)
	code, err := d.commander.Run(ctx, Command{
		Argv:   argv,
		Stdin:  d.streams.In,
		Stdout: stdout,
		Stderr: d.streams.Err,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &CommandError{Argv: argv, Code: code}
	}
	return nil
}

// inspect runs `docker <kind> inspect name` and decodes the first entry
// into v. docker prints a JSON array on stdout even when it fails, so the
// exit status is not consulted; an empty array means not found.
func (d *DockerCLI) inspect(ctx context.Context, kind, name string, v any) (bool, error) {
	argv := d.command(kind, "inspect", name)

	var stdout, stderr bytes.Buffer
	code, err := d.commander.Run(ctx, Command{Argv: argv, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		return false, errors.NewRuntimeError(
			fmt.Sprintf("Cannot inspect %s '%s'", kind, name), err.Error(), "", err)
	}
	if code != 0 {
		slog.Debug("docker inspect exited non-zero",
			"kind", kind, "name", name, "code", code, "stderr", strings.TrimSpace(stderr.String()))
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &entries); err != nil {
		return false, errors.NewRuntimeError(
			fmt.Sprintf("Cannot parse output of %s", ui.FormatCommand(argv)),
			strings.TrimSpace(stderr.String()),
			"",
			err,
		)
	}
	if len(entries) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(entries[0], v); err != nil {
		return false, errors.NewRuntimeError(
			fmt.Sprintf("Cannot decode %s '%s'", kind, name), err.Error(), "", err)
	}
	return true, nil
}

func (d *DockerCLI) InspectContainer(ctx context.Context, name string) (*container.InspectResponse, error) {
	var c container.InspectResponse
	found, err := d.inspect(ctx, "container", name, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (d *DockerCLI) InspectImage(ctx context.Context, ref string) (*image.InspectResponse, error) {
	var img image.InspectResponse
	found, err := d.inspect(ctx, "image", ref, &img)
	if err != nil || !found {
		return nil, err
	}
	return &img, nil
}

// RunArgs returns the full `docker run` command line for opts.
func (d *DockerCLI) RunArgs(opts runtime.RunOptions) []string {
	hostname := opts.Hostname
	if hostname == "" {
		hostname = opts.Name
	}

	argv := d.command("run", "--name="+opts.Name, "--hostname="+hostname)
	for _, e := range opts.Env {
		argv = append(argv, "--env="+e)
	}
	argv = append(argv, "--rm=false", "--detach=true", "--tty=false")
	for _, m := range opts.Mounts {
		argv = append(argv, MountArg(m))
	}
	argv = append(argv, opts.ExtraArgs...)
	argv = append(argv, opts.Image)
	return append(argv, opts.Command...)
}

// Run creates and starts a detached container. Its stdout, the new
// container id, is discarded.
func (d *DockerCLI) Run(ctx context.Context, opts runtime.RunOptions) error {
	return d.mutate(ctx, d.RunArgs(opts), nil)
}

// Start starts a stopped container. docker echoes the name on stdout,
// which is discarded.
func (d *DockerCLI) Start(ctx context.Context, name string) error {
	return d.mutate(ctx, d.command("container", "start", name), nil)
}

func (d *DockerCLI) Build(ctx context.Context, opts runtime.BuildOptions) error {
	argv := d.command("build")
	if opts.Progress {
		argv = append(argv, "--progress=plain")
	}
	if opts.Quiet {
		argv = append(argv, "--quiet")
	}
	if opts.NoCache {
		argv = append(argv, "--no-cache")
	}
	argv = append(argv, "--tag", opts.Tag, opts.ContextDir)
	return d.mutate(ctx, argv, d.streams.Out)
}

func (d *DockerCLI) RemoveImage(ctx context.Context, ref string) error {
	return d.mutate(ctx, d.command("rmi", "-f", ref), d.streams.Out)
}

// ExecArgs returns the full `docker exec` command line for opts.
func (d *DockerCLI) ExecArgs(opts runtime.ExecOptions) []string {
	argv := d.command("exec", "-i", "--detach-keys="+DetachKeys)
	if opts.TTY {
		argv = append(argv, "-t")
	}
	argv = append(argv, opts.Container)
	return append(argv, opts.Command...)
}

// Exec runs the command in the container in place of this process. In
// dry-run mode it prints the command and returns nil.
func (d *DockerCLI) Exec(ctx context.Context, opts runtime.ExecOptions) error {
	argv := d.ExecArgs(opts)
	d.console.Flush()

	if d.dryRun {
		d.console.PrintCommand(argv)
		return nil
	}

	slog.Info("Replacing process with docker exec", "command", argv)
	return d.commander.Replace(argv)
}

// MountArg renders a bind mount as a `docker run` -v option.
func MountArg(m mount.Mount) string {
	mode := "rw"
	if m.ReadOnly {
		mode = "ro"
	}
	return fmt.Sprintf("-v=%s:%s:%s", m.Source, m.Target, mode)
}

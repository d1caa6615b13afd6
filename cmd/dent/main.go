package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dent/internal/app"
	"dent/internal/config"
	denterrors "dent/internal/errors"
	"dent/internal/templates"
	"dent/internal/ui"
	"dent/pkg/profile"
)

// version is set at build time via ldflags
var version = "dev"

// cliFlags holds the parsed command line.
type cliFlags struct {
	opts       config.Options
	printFile  string
	listImages bool
	version    bool
	configPath string
}

func newRootCmd(factory *app.Factory) *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "dent [flags] CONTAINER_NAME [COMMAND...]",
		Short: "Enter a persistent development container",
		Long: `dent creates, starts and enters a long-lived container named CONTAINER_NAME.

A missing container is created from an image built from a base image (-B)
with a user account matching yours; a stopped one is started. COMMAND runs
inside the container, a login shell when none is given.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkModes(args, f); err != nil {
				return err
			}
			if f.version {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", progname(), version)
				return err
			}
			return runDent(cmd, factory, f, args)
		},
	}

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVarP(&f.opts.BaseImage, "base-image", "B", "", "base image to build from when the container does not exist")
	flags.StringVarP(&f.opts.Image, "image", "i", "", "use this image instead of building one")
	flags.StringVarP(&f.opts.Tag, "tag", "t", "", "tag of the built image (default: your login name)")
	flags.BoolVarP(&f.opts.DryRun, "dry-run", "n", false, "print the docker commands instead of running them")
	flags.StringVarP(&f.printFile, "print-file", "P", "", fmt.Sprintf("print a generated file and exit (%s)", strings.Join(templates.Names(), ", ")))
	flags.BoolVarP(&f.opts.Progress, "progress", "V", false, "show image build progress")
	flags.BoolVarP(&f.opts.Quiet, "quiet", "q", false, "suppress progress messages")
	flags.BoolVarP(&f.opts.ForceRebuild, "force-rebuild", "R", false, "rebuild the image without cache")
	flags.StringArrayVarP(&f.opts.RunOpts, "run-opt", "r", nil, "extra option for docker run (repeatable)")
	flags.StringArrayVarP(&f.opts.ShareRO, "share-ro", "s", nil, "share a path read-only, relative to your home (repeatable)")
	flags.StringArrayVarP(&f.opts.ShareRW, "share-rw", "S", nil, "share a path read-write, relative to your home (repeatable)")
	flags.StringVar(&f.opts.Tmpdir, "tmpdir", "", "directory to create for the build context")
	flags.BoolVar(&f.opts.KeepTmpdir, "keep-tmpdir", false, "keep the build context directory")
	flags.BoolVarP(&f.listImages, "list-base-images", "L", false, "list known base images and exit")
	flags.BoolVar(&f.version, "version", false, "print the version and exit")
	flags.StringVar(&f.configPath, "config", "", "settings file (default: $DENT_CONFIG or ~/.config/dent/config.yaml)")

	cmd.MarkFlagsMutuallyExclusive("image", "tag")
	cmd.MarkFlagsMutuallyExclusive("list-base-images", "version")

	return cmd
}

// checkModes requires exactly one of a container name, -L or --version.
func checkModes(args []string, f cliFlags) error {
	modes := 0
	if len(args) > 0 {
		modes++
	}
	if f.listImages {
		modes++
	}
	if f.version {
		modes++
	}
	switch {
	case modes == 0:
		return errors.New("one of CONTAINER_NAME, --list-base-images or --version is required")
	case modes > 1:
		return errors.New("CONTAINER_NAME, --list-base-images and --version are mutually exclusive")
	}
	return nil
}

func runDent(cmd *cobra.Command, factory *app.Factory, f cliFlags, args []string) error {
	console := consoleFor(cmd, f.opts.Quiet)

	settings, err := config.LoadSettings(f.configPath)
	logDir := ""
	if err == nil {
		logDir = settings.LogDir
	}

	handler := denterrors.NewErrorHandler(logDir, console)
	defer handler.Close()

	handler.With("runId", uuid.New().String())
	slog.SetDefault(handler.Logger())

	if err == nil {
		err = dispatch(cmd, factory, f, args, settings, console)
	}
	if err == nil {
		return nil
	}

	handler.Handle(err)
	var exit *denterrors.ExitStatus
	if errors.As(err, &exit) {
		return exit
	}
	return &denterrors.ExitStatus{Code: 1}
}

func dispatch(cmd *cobra.Command, factory *app.Factory, f cliFlags, args []string, settings *config.Settings, console *ui.Console) error {
	catalog := settings.Catalog()

	if f.listImages {
		return listBaseImages(cmd.OutOrStdout(), catalog, writerIsTerminal(cmd.OutOrStdout()))
	}

	opts := f.opts
	opts.ContainerName = args[0]
	opts.Command = args[1:]

	account, err := config.CurrentAccount()
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(opts, account, catalog, progname())
	if err != nil {
		return err
	}

	if f.printFile != "" {
		content, err := templates.Render(f.printFile, templates.ParamsFor(cfg))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
		return err
	}

	ctx := cmd.Context()
	slog.Info("Resolved configuration",
		"container", cfg.ContainerName,
		"image", cfg.Image,
		"baseImage", cfg.BaseImage,
		"dryRun", cfg.DryRun,
	)

	orchestrator, err := factory.Orchestrator(ctx, cfg, settings, console)
	if err != nil {
		return err
	}
	return orchestrator.Enter(ctx)
}

// listBaseImages writes the catalog, one name per line, or as a table
// when asTable is set.
func listBaseImages(w io.Writer, catalog *profile.Catalog, asTable bool) error {
	if !asTable {
		for _, name := range catalog.Names() {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Image", "Presetup", "Useradd"})
	for _, p := range catalog.Profiles() {
		t.AppendRow(table.Row{p.Name, p.Presetup, p.UseraddStrategy()})
	}
	t.Render()
	return nil
}

func consoleFor(cmd *cobra.Command, quiet bool) *ui.Console {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if stdout == io.Writer(os.Stdout) && stderr == io.Writer(os.Stderr) {
		return ui.NewConsole(progname(), quiet)
	}
	return ui.NewConsoleWithWriters(progname(), quiet, stdout, stderr)
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func progname() string {
	return filepath.Base(os.Args[0])
}

// execute runs cmd with args and returns the process exit code.
func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *denterrors.ExitStatus
	if errors.As(err, &exit) {
		return exit.Code
	}

	// Usage errors, reported before any logging is set up.
	fmt.Fprintf(cmd.ErrOrStderr(), "usage: %s\n%s: error: %s\n", cmd.UseLine(), progname(), err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd(app.NewFactory()), os.Args[1:])
	stop()
	os.Exit(code)
}

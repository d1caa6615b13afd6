package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"golang.org/x/term"
)

type ConsoleStyle int

const (
	StyleNormal ConsoleStyle = iota
	StyleError
	StyleWarning
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

// progressPrefix marks dent's own progress lines on stdout.
const progressPrefix = "-----"

// Console writes user-facing output. Progress goes to stdout; errors and
// dry-run commands go to stderr so the two can be separated.
type Console struct {
	progname  string
	quiet     bool
	useColors bool
	stdout    io.Writer
	stderr    io.Writer
}

func NewConsole(progname string, quiet bool) *Console {
	return &Console{
		progname:  progname,
		quiet:     quiet,
		useColors: isTerminal(os.Stderr),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
}

// NewConsoleWithWriters returns a console writing to the given streams,
// without colors.
func NewConsoleWithWriters(progname string, quiet bool, stdout, stderr io.Writer) *Console {
	return &Console{
		progname: progname,
		quiet:    quiet,
		stdout:   stdout,
		stderr:   stderr,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (c *Console) formatMessage(style ConsoleStyle, message string) string {
	if !c.useColors {
		return message
	}

	var color string
	switch style {
	case StyleError:
		color = colorRed + colorBold
	case StyleWarning:
		color = colorYellow
	default:
		return message
	}

	return color + message + colorReset
}

// PrintError prints a program-prefixed error message on stderr.
func (c *Console) PrintError(message string) {
	fmt.Fprintf(c.stderr, "%s\n", c.formatMessage(StyleError, c.progname+": "+message))
}

// PrintWarning prints a program-prefixed warning on stderr.
func (c *Console) PrintWarning(message string) {
	fmt.Fprintf(c.stderr, "%s\n", c.formatMessage(StyleWarning, c.progname+": warning: "+message))
}

// Progress prints a progress line on stdout unless the console is quiet.
// force prints it regardless of quiet mode.
func (c *Console) Progress(message string, force bool) {
	if c.quiet && !force {
		return
	}
	fmt.Fprintf(c.stdout, "%s %s\n", progressPrefix, message)
}

// PrintCommand echoes a command line on stderr, after flushing anything
// pending on stdout so the two streams interleave in order.
func (c *Console) PrintCommand(argv []string) {
	c.Flush()
	fmt.Fprintln(c.stderr, FormatCommand(argv))
	c.Flush()
}

// Flush syncs the console's streams when they are files. Errors from
// syncing a terminal or pipe are ignored.
func (c *Console) Flush() {
	for _, w := range []io.Writer{c.stdout, c.stderr} {
		if f, ok := w.(*os.File); ok {
			_ = f.Sync()
		}
	}
}

func (c *Console) FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, context)
	}

	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}

	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}

// FormatCommand renders argv as a shell-quoted command line.
func FormatCommand(argv []string) string {
	return shellescape.QuoteCommand(argv)
}

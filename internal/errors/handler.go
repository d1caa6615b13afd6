package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"dent/internal/ui"
)

const logFileName = "dent.log"

type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
	logFile io.Closer
}

// NewErrorHandler opens the log file under logDir (or the OS-standard log
// directory when logDir is empty) and returns a handler reporting to it
// and to console. When the log file cannot be opened a warning is printed
// and records are discarded.
func NewErrorHandler(logDir string, console *ui.Console) *ErrorHandler {
	opts := &slog.HandlerOptions{Level: logLevel()}

	logFile, err := createLogFile(logDir)
	if err != nil {
		console.PrintWarning(fmt.Sprintf("logging disabled: %v", err))
		return &ErrorHandler{
			logger:  slog.New(slog.NewJSONHandler(io.Discard, opts)),
			console: console,
		}
	}

	return &ErrorHandler{
		logger:  slog.New(slog.NewJSONHandler(logFile, opts)),
		console: console,
		logFile: logFile,
	}
}

// Logger returns the structured logger writing to the log file.
func (h *ErrorHandler) Logger() *slog.Logger {
	return h.logger
}

// With adds attributes to every record logged from now on.
func (h *ErrorHandler) With(args ...any) {
	h.logger = h.logger.With(args...)
}

func (h *ErrorHandler) Close() error {
	if h.logFile == nil {
		return nil
	}
	return h.logFile.Close()
}

// logLevel reads DENT_LOG_LEVEL (debug, info, warn, error); info otherwise.
func logLevel() slog.Level {
	var level slog.Level
	if v := os.Getenv("DENT_LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err == nil {
			return level
		}
	}
	return slog.LevelInfo
}

// getOSStandardLogDir returns the OS-standard log directory path
func getOSStandardLogDir() (string, error) {
	if customLogDir := os.Getenv("DENT_LOG_DIR"); customLogDir != "" {
		return customLogDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "dent"), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		// XDG data dir
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "dent", "logs"), nil
		}
		return filepath.Join(homeDir, ".local", "share", "dent", "logs"), nil
	default:
		return filepath.Join(homeDir, ".dent", "logs"), nil
	}
}

// createLogDirectoryWithFallback creates the log directory with fallback to current directory
func createLogDirectoryWithFallback(logDir string) (string, bool, error) {
	var warnings []string

	var err error
	if logDir == "" {
		logDir, err = getOSStandardLogDir()
	}
	if err == nil {
		if err = os.MkdirAll(logDir, 0750); err == nil {
			testFile := filepath.Join(logDir, ".test_write")
			f, testErr := os.Create(testFile)
			if testErr == nil {
				_ = f.Close()
				_ = os.Remove(testFile)
				return logDir, false, nil
			}
			err = testErr
		}
		warnings = append(warnings, fmt.Sprintf("Cannot access log directory %s: %v", logDir, err))
	} else {
		warnings = append(warnings, fmt.Sprintf("Cannot determine standard log directory: %v", err))
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return "", true, fmt.Errorf("cannot determine current directory for fallback logging: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Warning: %s. Falling back to current directory for logging.\n", warnings[0])

	return currentDir, true, nil
}

// rotateLogFile rotates log files when size limit is exceeded
func rotateLogFile(logPath string) error {
	const maxFiles = 5

	// .4 -> .5, .3 -> .4, ...; the oldest is dropped
	for i := maxFiles - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", logPath, i)
		newPath := fmt.Sprintf("%s.%d", logPath, i+1)

		if _, err := os.Stat(oldPath); err != nil {
			continue
		}
		if i == maxFiles-1 {
			if err := os.Remove(oldPath); err != nil {
				return fmt.Errorf("failed to remove old log file %s: %w", oldPath, err)
			}
			continue
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("failed to rotate log file %s: %w", oldPath, err)
		}
	}

	if _, err := os.Stat(logPath); err == nil {
		return os.Rename(logPath, logPath+".1")
	}

	return nil
}

// checkLogRotation checks if log rotation is needed and performs it
func checkLogRotation(logPath string) error {
	const maxSizeBytes = 10 * 1024 * 1024 // 10MB

	info, err := os.Stat(logPath)
	if err != nil {
		return nil
	}

	if info.Size() >= maxSizeBytes {
		return rotateLogFile(logPath)
	}

	return nil
}

func createLogFile(logDir string) (*os.File, error) {
	logDir, _, err := createLogDirectoryWithFallback(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, logFileName)

	if err := checkLogRotation(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var exitStatus *ExitStatus
	if errors.As(err, &exitStatus) {
		h.logger.Info("Command exited", "code", exitStatus.Code)
		return
	}

	var dentErr *DentError
	if errors.As(err, &dentErr) {
		h.handleDentError(dentErr)
	} else {
		h.handleGenericError(err)
	}
}

func (h *ErrorHandler) handleDentError(err *DentError) {
	h.logStructuredError(err)

	message := h.console.FormatErrorMessage(err.Context, err.Cause, err.Suggestion)
	h.console.PrintError(message)
}

func (h *ErrorHandler) handleGenericError(err error) {
	h.logger.Error("Unhandled error occurred",
		"error", err.Error(),
		"type", "generic",
	)

	h.console.PrintError(err.Error())
}

func (h *ErrorHandler) logStructuredError(err *DentError) {
	logAttrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.String("type", getErrorTypeName(err.Type)),
		slog.String("context", err.Context),
	}

	if err.Cause != "" {
		logAttrs = append(logAttrs, slog.String("cause", err.Cause))
	}

	if err.Suggestion != "" {
		logAttrs = append(logAttrs, slog.String("suggestion", err.Suggestion))
	}

	h.logger.LogAttrs(context.TODO(), slog.LevelError, "dent error occurred", logAttrs...)
}

func getErrorTypeName(errType error) string {
	switch errType {
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrIncompatibleOptions:
		return "incompatible_options"
	case ErrPrivilege:
		return "privilege"
	case ErrRuntimeFailed:
		return "runtime_failed"
	case ErrBuildFailed:
		return "build_failed"
	case ErrContainerVanished:
		return "container_vanished"
	case ErrStartTimeout:
		return "start_timeout"
	case ErrFileSystemFailed:
		return "filesystem_failed"
	default:
		return "unknown"
	}
}

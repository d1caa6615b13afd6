package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfigInvalid       = errors.New("configuration invalid")
	ErrIncompatibleOptions = errors.New("options incompatible with existing container")
	ErrPrivilege           = errors.New("cannot reach container runtime")
	ErrRuntimeFailed       = errors.New("runtime operation failed")
	ErrBuildFailed         = errors.New("image build failed")
	ErrContainerVanished   = errors.New("container no longer exists")
	ErrStartTimeout        = errors.New("container did not start")
	ErrFileSystemFailed    = errors.New("filesystem operation failed")
)

type DentError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *DentError) Error() string {
	if e.OriginalErr != nil {
		return e.OriginalErr.Error()
	}
	return e.Context
}

func (e *DentError) Unwrap() error {
	return e.OriginalErr
}

// Is lets errors.Is match a DentError against its kind.
func (e *DentError) Is(target error) bool {
	return target == e.Type
}

func NewDentError(errorType error, context, cause, suggestion string, originalErr error) *DentError {
	if originalErr == nil {
		originalErr = fmt.Errorf("%w: %s", errorType, context)
	}
	return &DentError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewConfigError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewIncompatibleOptionsError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrIncompatibleOptions, context, cause, suggestion, originalErr)
}

func NewPrivilegeError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrPrivilege, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewBuildError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrBuildFailed, context, cause, suggestion, originalErr)
}

func NewVanishedError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrContainerVanished, context, cause, suggestion, originalErr)
}

func NewStartTimeoutError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrStartTimeout, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *DentError {
	return NewDentError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}

// ExitStatus carries the exit code of a command dent ran in place of
// itself. It is not a failure of dent; main exits with Code silently.
type ExitStatus struct {
	Code int
}

func (e *ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

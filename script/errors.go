package script

import (
	"errors"
	"fmt"

	scripthost "github.com/reglet-dev/reglet-scripthost"
)

// Sentinel errors matched by *FileRejectedError.
var (
	ErrInvalidScriptName   = errors.New("invalid script name")
	ErrDisallowedExtension = errors.New("disallowed script extension")
	ErrScriptTooLarge      = errors.New("script too large")
	ErrScriptNotFound      = errors.New("script not found")
)

// ErrHostClosed is returned in results from a disposed host.
var ErrHostClosed = errors.New("script host closed")

// FileRejectedError reports a script file that was refused before or while
// it was read.
type FileRejectedError struct {
	Name   string
	Reason error
	Detail string
}

func (e *FileRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("script %q rejected: %v: %s", e.Name, e.Reason, e.Detail)
	}
	return fmt.Sprintf("script %q rejected: %v", e.Name, e.Reason)
}

// Is matches the sentinel carried in Reason.
func (e *FileRejectedError) Is(target error) bool {
	return e.Reason == target
}

func (e *FileRejectedError) Unwrap() error { return e.Reason }

// ScriptError records a runtime fault raised while running a chunk or a
// callback.
type ScriptError struct {
	Chunk      string
	Generation scripthost.Generation
	Err        error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Chunk, e.Generation, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Message returns the underlying fault text without chunk decoration.
func (e *ScriptError) Message() string {
	return e.Err.Error()
}

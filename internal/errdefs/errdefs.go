// Package errdefs defines the classified errors surfaced by backup and
// restore runs. Everything the engine raises is one of these types so the
// CLI can map failures to exit codes and operators get the attempted
// command line back.
package errdefs

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid input: a bad selection scope, a
// duplicate preset name, missing SSH credentials, and the like.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference to a preset or connection that does
// not exist in the loaded config.
type NotFoundError struct {
	Kind string // "connection" or "preset"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// SSHConnectionError reports a failure to open or authenticate the
// remote channel.
type SSHConnectionError struct {
	Host string
	Err  error
}

func (e *SSHConnectionError) Error() string {
	return fmt.Sprintf("ssh connection to %s failed: %v", e.Host, e.Err)
}

func (e *SSHConnectionError) Unwrap() error { return e.Err }

// ProcessExecutionError reports a dump or restore tool that exited
// non-zero. CommandLine is the redacted invocation; Stderr holds
// whatever the tool printed before dying.
type ProcessExecutionError struct {
	Connection  string
	CommandLine string
	Stderr      string
	Err         error
}

func (e *ProcessExecutionError) Error() string {
	msg := fmt.Sprintf("command failed for connection %q: %v (cmd: %s)", e.Connection, e.Err, e.CommandLine)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProcessExecutionError) Unwrap() error { return e.Err }

// FileSystemError reports a directory creation, temp write, rename, or
// delete failure.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsSSHConnection(err error) bool {
	var e *SSHConnectionError
	return errors.As(err, &e)
}

func IsProcessExecution(err error) bool {
	var e *ProcessExecutionError
	return errors.As(err, &e)
}

func IsFileSystem(err error) bool {
	var e *FileSystemError
	return errors.As(err, &e)
}

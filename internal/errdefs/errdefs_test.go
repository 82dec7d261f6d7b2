package errdefs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNotFoundMessageMatchesNotFound(t *testing.T) {
	err := &NotFoundError{Kind: "preset", Name: "nightly"}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected message to contain %q, got %q", "not found", err.Error())
	}
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound to match")
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	base := &ProcessExecutionError{
		Connection:  "prod",
		CommandLine: "mongodump --db app",
		Stderr:      "connection refused",
		Err:         errors.New("exit status 1"),
	}
	wrapped := fmt.Errorf("backup run: %w", base)

	if !IsProcessExecution(wrapped) {
		t.Fatal("expected IsProcessExecution to match through wrapping")
	}
	if IsSSHConnection(wrapped) {
		t.Fatal("did not expect IsSSHConnection to match")
	}

	var pe *ProcessExecutionError
	if !errors.As(wrapped, &pe) {
		t.Fatal("errors.As failed")
	}
	if pe.Stderr != "connection refused" {
		t.Fatalf("unexpected stderr: %q", pe.Stderr)
	}
}

func TestProcessExecutionErrorCarriesCommandLine(t *testing.T) {
	err := &ProcessExecutionError{
		Connection:  "staging",
		CommandLine: "mongodump --host h --port 27017",
		Err:         errors.New("exit status 2"),
	}
	if !strings.Contains(err.Error(), "mongodump --host h --port 27017") {
		t.Fatalf("expected command line in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "staging") {
		t.Fatalf("expected connection name in message, got %q", err.Error())
	}
}

func TestFileSystemErrorUnwraps(t *testing.T) {
	cause := errors.New("permission denied")
	err := &FileSystemError{Op: "rename", Path: "/backups/a.gz", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
	if !IsFileSystem(err) {
		t.Fatal("expected IsFileSystem to match")
	}
}

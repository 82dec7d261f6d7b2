package atomicfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreateCommitLeavesOnlyFinalFile(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "backup.gz")

	af, err := Create(final)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasSuffix(af.Name(), ".tmp") {
		t.Fatalf("temp path should end in .tmp, got %s", af.Name())
	}

	if _, err := af.Write([]byte("archive-bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	names := listDir(t, dir)
	if len(names) != 1 || names[0] != "backup.gz" {
		t.Fatalf("expected only backup.gz, got %v", names)
	}

	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(data) != "archive-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestCreateAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	af, err := Create(filepath.Join(dir, "backup.gz"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := af.Write([]byte("partial")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := af.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected empty dir, got %v", names)
	}
}

func TestStageCommitPromotesToolWrittenFile(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "backup.gz")

	af, err := Stage(final)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	// Simulate the external tool writing the staged path.
	if err := os.WriteFile(af.Name(), []byte("dump"), 0o644); err != nil {
		t.Fatalf("write staged: %v", err)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	names := listDir(t, dir)
	if len(names) != 1 || names[0] != "backup.gz" {
		t.Fatalf("expected only backup.gz, got %v", names)
	}
}

func TestStageAbortIsNoOpWhenToolNeverWrote(t *testing.T) {
	dir := t.TempDir()
	af, err := Stage(filepath.Join(dir, "backup.gz"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := af.Abort(); err != nil {
		t.Fatalf("Abort on missing temp should not fail: %v", err)
	}
}

func TestCommitAfterAbortIsNoOp(t *testing.T) {
	dir := t.TempDir()
	af, err := Create(filepath.Join(dir, "backup.gz"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := af.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("Commit after Abort should be a no-op, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected empty dir, got %v", names)
	}
}

func TestCreateEnsuresParentDirectory(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "nested", "deeper", "backup.gz")

	af, err := Create(final)
	if err != nil {
		t.Fatalf("Create with missing parents: %v", err)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("final file missing: %v", err)
	}
}

// Package restore drives mongorestore against a target connection,
// locally or over SSH. Restore consumes an existing archive, so there
// is no temp-file promotion here; partial-failure semantics are
// whatever the tool itself guarantees.
package restore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/backup"
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
	"github.com/mongokit/mongokit/internal/sshx"
)

// Feeder is the remote channel used to stream an archive into a tool's
// stdin on the target host. Satisfied by sshx.Client.
type Feeder interface {
	ExecuteWithInput(ctx context.Context, creds config.SSHConfig, tool string, args []string, in io.Reader) error
}

type Runner struct {
	cfg     *config.AppConfig
	builder *backup.Builder
	channel Feeder
}

func NewRunner(cfg *config.AppConfig) *Runner {
	return &Runner{cfg: cfg, builder: backup.NewBuilder(cfg), channel: sshx.NewClient()}
}

// Restore replays archivePath into the target connection's database.
func (r *Runner) Restore(ctx context.Context, conn *config.Connection, archivePath string, drop bool) error {
	if _, err := os.Stat(archivePath); err != nil {
		return &errdefs.FileSystemError{Op: "open archive", Path: archivePath, Err: err}
	}

	args := r.builder.RestoreArgs(conn, drop)

	if conn.Remote() {
		return r.remote(ctx, conn, args, archivePath)
	}
	return r.local(ctx, conn, args, archivePath)
}

func (r *Runner) local(ctx context.Context, conn *config.Connection, args []string, archivePath string) error {
	args = append(args, "--archive="+archivePath)
	cmdline := backup.CommandLine(r.cfg.MongorestorePath, args)
	logrus.WithFields(logrus.Fields{
		"connection": conn.Name,
		"cmd":        cmdline,
	}).Debug("running mongorestore")

	cmd := exec.CommandContext(ctx, r.cfg.MongorestorePath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &errdefs.ProcessExecutionError{
			Connection:  conn.Name,
			CommandLine: cmdline,
			Stderr:      strings.TrimSpace(stderr.String()),
			Err:         err,
		}
	}
	return nil
}

func (r *Runner) remote(ctx context.Context, conn *config.Connection, args []string, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return &errdefs.FileSystemError{Op: "open archive", Path: archivePath, Err: err}
	}
	defer f.Close()

	// Bare --archive makes mongorestore read the dump from stdin.
	args = append(args, "--archive")
	logrus.WithFields(logrus.Fields{
		"connection": conn.Name,
		"ssh":        conn.SSH.Host,
		"cmd":        backup.CommandLine(r.cfg.MongorestorePath, args),
	}).Debug("running mongorestore over ssh")

	if err := r.channel.ExecuteWithInput(ctx, *conn.SSH, r.cfg.MongorestorePath, args, f); err != nil {
		var pe *errdefs.ProcessExecutionError
		if errors.As(err, &pe) && pe.Connection == "" {
			pe.Connection = conn.Name
		}
		return err
	}
	return nil
}

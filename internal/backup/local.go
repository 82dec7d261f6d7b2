package backup

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/atomicfile"
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
)

// LocalStrategy runs mongodump on this host, writing the archive to a
// staged temp path that is promoted after a clean exit.
type LocalStrategy struct {
	cfg     *config.AppConfig
	builder *Builder
}

func (s *LocalStrategy) CreateBackup(ctx context.Context, conn *config.Connection, scope Scope) (string, error) {
	args, err := s.builder.DumpArgs(conn, scope)
	if err != nil {
		return "", err
	}

	dest := s.builder.DestinationPath(conn, time.Now())
	af, err := atomicfile.Stage(dest)
	if err != nil {
		return "", err
	}

	args = append(args, "--archive="+af.Name())
	cmdline := CommandLine(s.cfg.MongodumpPath, args)
	logrus.WithFields(logrus.Fields{
		"connection": conn.Name,
		"cmd":        cmdline,
	}).Debug("running mongodump")

	cmd := exec.CommandContext(ctx, s.cfg.MongodumpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		discard(af)
		return "", &errdefs.ProcessExecutionError{
			Connection:  conn.Name,
			CommandLine: cmdline,
			Stderr:      strings.TrimSpace(stderr.String()),
			Err:         err,
		}
	}

	if err := af.Commit(); err != nil {
		return "", err
	}
	return dest, nil
}

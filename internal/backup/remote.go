package backup

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/atomicfile"
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
)

// RemoteStrategy runs mongodump on the connection's SSH host and
// streams the archive from remote stdout into the local temp file.
type RemoteStrategy struct {
	cfg     *config.AppConfig
	builder *Builder
	channel Executor
}

func (s *RemoteStrategy) CreateBackup(ctx context.Context, conn *config.Connection, scope Scope) (string, error) {
	if conn.SSH == nil {
		return "", errdefs.Validationf("connection %q has no ssh credentials", conn.Name)
	}

	args, err := s.builder.DumpArgs(conn, scope)
	if err != nil {
		return "", err
	}
	// Bare --archive sends the dump to stdout for the channel to stream.
	args = append(args, "--archive")

	dest := s.builder.DestinationPath(conn, time.Now())
	af, err := atomicfile.Create(dest)
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"connection": conn.Name,
		"ssh":        conn.SSH.Host,
		"cmd":        CommandLine(s.cfg.MongodumpPath, args),
	}).Debug("running mongodump over ssh")

	if err := s.channel.Execute(ctx, *conn.SSH, s.cfg.MongodumpPath, args, af); err != nil {
		discard(af)
		var pe *errdefs.ProcessExecutionError
		if errors.As(err, &pe) && pe.Connection == "" {
			pe.Connection = conn.Name
		}
		return "", err
	}

	if err := af.Commit(); err != nil {
		return "", err
	}
	return dest, nil
}

package backup

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/atomicfile"
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/sshx"
)

// Strategy runs one backup for one connection. Implementations share
// the Builder; Local spawns mongodump against a staged temp path,
// Remote streams the archive over SSH. Either way the temp artifact is
// promoted by atomic rename only after the tool exits cleanly, and is
// removed on every other path.
type Strategy interface {
	CreateBackup(ctx context.Context, conn *config.Connection, scope Scope) (string, error)
}

// Executor is the remote execution channel consumed by RemoteStrategy.
// Satisfied by sshx.Client; tests substitute a fake.
type Executor interface {
	Execute(ctx context.Context, creds config.SSHConfig, tool string, args []string, out io.Writer) error
}

// ForConnection picks the strategy matching the connection's transport.
func ForConnection(cfg *config.AppConfig, conn *config.Connection) Strategy {
	builder := NewBuilder(cfg)
	if conn.Remote() {
		return &RemoteStrategy{cfg: cfg, builder: builder, channel: sshx.NewClient()}
	}
	return &LocalStrategy{cfg: cfg, builder: builder}
}

// discard removes the temp artifact on the failure path. Cleanup
// failure is a warning, never an escalation over the original error.
func discard(af *atomicfile.File) {
	if err := af.Abort(); err != nil {
		logrus.WithError(err).WithField("path", af.Name()).Warn("could not remove temp backup file")
	}
}

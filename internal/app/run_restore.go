package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
	"github.com/mongokit/mongokit/internal/notify"
	"github.com/mongokit/mongokit/internal/restore"
)

// RunRestore replays an archive into the named target connection.
// Relative archive paths are resolved against the backup directory.
func RunRestore(ctx context.Context, cfg *config.AppConfig, target, archivePath string, drop bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	conn := cfg.Connection(target)
	if conn == nil {
		return &errdefs.NotFoundError{Kind: "connection", Name: target}
	}

	if !filepath.IsAbs(archivePath) {
		archivePath = filepath.Join(cfg.BackupDir, archivePath)
	}

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		return err
	}

	started := time.Now()
	runner := restore.NewRunner(cfg)
	if err := runner.Restore(ctx, conn, archivePath, drop); err != nil {
		notifyOutcome(ctx, dispatcher, notify.Event{
			Operation:  "restore",
			Connection: conn.Name,
			Status:     notify.StatusFailure,
			Archive:    archivePath,
			Duration:   time.Since(started).Round(time.Millisecond).String(),
			Error:      err.Error(),
		})
		return err
	}

	logrus.WithFields(logrus.Fields{
		"connection": conn.Name,
		"archive":    archivePath,
		"duration":   time.Since(started).Round(time.Millisecond),
	}).Info("restore complete")

	notifyOutcome(ctx, dispatcher, notify.Event{
		Operation:  "restore",
		Connection: conn.Name,
		Status:     notify.StatusSuccess,
		Archive:    archivePath,
		Duration:   time.Since(started).Round(time.Millisecond).String(),
	})
	return nil
}

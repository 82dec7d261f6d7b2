package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/backup"
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
	"github.com/mongokit/mongokit/internal/notify"
	"github.com/mongokit/mongokit/internal/preset"
	"github.com/mongokit/mongokit/internal/upload"
)

const notificationTimeout = 5 * time.Second

// BackupOptions selects what one backup invocation targets: either a
// stored preset, or a source connection with an ad-hoc scope.
type BackupOptions struct {
	Source      string
	Preset      string
	Mode        string
	Collections []string
}

// RunBackup executes one backup and returns the promoted artifact path.
func RunBackup(ctx context.Context, cfg *config.AppConfig, opts BackupOptions) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	conn, scope, err := resolveTarget(cfg, opts)
	if err != nil {
		return "", err
	}

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		return "", err
	}

	started := time.Now()
	strategy := backup.ForConnection(cfg, conn)
	path, err := strategy.CreateBackup(ctx, conn, scope)
	if err != nil {
		notifyOutcome(ctx, dispatcher, notify.Event{
			Operation:  "backup",
			Connection: conn.Name,
			Status:     notify.StatusFailure,
			Duration:   time.Since(started).Round(time.Millisecond).String(),
			Error:      err.Error(),
		})
		return "", err
	}

	size := artifactSize(path)
	logrus.WithFields(logrus.Fields{
		"connection": conn.Name,
		"archive":    path,
		"size":       humanize.Bytes(uint64(size)),
		"duration":   time.Since(started).Round(time.Millisecond),
	}).Info("backup complete")

	if cfg.Offsite != nil && cfg.Offsite.Enabled {
		if err := uploadOffsite(ctx, cfg, path); err != nil {
			// The local artifact is already promoted and is kept; the
			// run still fails so the operator notices the missing copy.
			notifyOutcome(ctx, dispatcher, notify.Event{
				Operation:  "backup",
				Connection: conn.Name,
				Status:     notify.StatusFailure,
				Archive:    path,
				Bytes:      size,
				Duration:   time.Since(started).Round(time.Millisecond).String(),
				Error:      err.Error(),
			})
			return path, err
		}
	}

	notifyOutcome(ctx, dispatcher, notify.Event{
		Operation:  "backup",
		Connection: conn.Name,
		Status:     notify.StatusSuccess,
		Archive:    path,
		Bytes:      size,
		Duration:   time.Since(started).Round(time.Millisecond).String(),
	})

	return path, nil
}

func resolveTarget(cfg *config.AppConfig, opts BackupOptions) (*config.Connection, backup.Scope, error) {
	if opts.Preset != "" {
		return preset.NewStore(cfg).Resolve(opts.Preset)
	}

	if opts.Source == "" {
		return nil, backup.Scope{}, errdefs.Validationf("either --source or --preset is required")
	}
	conn := cfg.Connection(opts.Source)
	if conn == nil {
		return nil, backup.Scope{}, &errdefs.NotFoundError{Kind: "connection", Name: opts.Source}
	}

	scope := backup.All()
	if opts.Mode != "" && opts.Mode != string(backup.ScopeAll) {
		scope = backup.Scope{Mode: backup.Mode(opts.Mode), Collections: opts.Collections}
	}
	if err := scope.Validate(); err != nil {
		return nil, backup.Scope{}, err
	}
	return conn, scope, nil
}

func uploadOffsite(ctx context.Context, cfg *config.AppConfig, path string) error {
	up, err := upload.NewS3(ctx, *cfg.Offsite)
	if err != nil {
		return err
	}
	loc, err := up.Upload(ctx, path, filepath.Base(path))
	if err != nil {
		return err
	}
	logrus.WithField("location", loc).Info("offsite copy uploaded")
	return nil
}

func artifactSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func notifyOutcome(ctx context.Context, dispatcher *notify.Dispatcher, event notify.Event) {
	notifyCtx, cancel := notificationContext(ctx)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"connection": event.Connection,
			"status":     event.Status,
		}).Warn("notification failed")
	}
}

// notificationContext detaches from the caller's cancellation so a
// timed-out run can still report its failure, while keeping values and
// applying a short timeout of its own.
func notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), notificationTimeout)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
}

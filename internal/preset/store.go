// Package preset manages named backup specifications stored in the
// config snapshot. Mutations happen in memory; callers persist the
// snapshot afterwards with config.Save, so batched edits write once.
package preset

import (
	"time"

	"github.com/mongokit/mongokit/internal/backup"
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
)

type Store struct {
	cfg *config.AppConfig
}

func NewStore(cfg *config.AppConfig) *Store {
	return &Store{cfg: cfg}
}

// Add appends a new preset. The name must be unused, the source
// connection must exist, and the scope must be coherent.
func (s *Store) Add(p config.BackupPreset) error {
	if p.Name == "" {
		return errdefs.Validationf("preset name is required")
	}
	if s.cfg.Preset(p.Name) != nil {
		return errdefs.Validationf("preset %q already exists", p.Name)
	}
	if s.cfg.Connection(p.Source) == nil {
		return &errdefs.NotFoundError{Kind: "connection", Name: p.Source}
	}
	if err := backup.ScopeFromPreset(p).Validate(); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.cfg.BackupPresets = append(s.cfg.BackupPresets, p)
	return nil
}

// Remove drops the named preset; removing an absent preset is a no-op.
// Reports whether anything was removed.
func (s *Store) Remove(name string) bool {
	for i := range s.cfg.BackupPresets {
		if s.cfg.BackupPresets[i].Name == name {
			s.cfg.BackupPresets = append(s.cfg.BackupPresets[:i], s.cfg.BackupPresets[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) List() []config.BackupPreset {
	return s.cfg.BackupPresets
}

// Resolve maps a preset name to its connection and runtime scope.
func (s *Store) Resolve(name string) (*config.Connection, backup.Scope, error) {
	p := s.cfg.Preset(name)
	if p == nil {
		return nil, backup.Scope{}, &errdefs.NotFoundError{Kind: "preset", Name: name}
	}
	conn := s.cfg.Connection(p.Source)
	if conn == nil {
		return nil, backup.Scope{}, &errdefs.NotFoundError{Kind: "connection", Name: p.Source}
	}
	return conn, backup.ScopeFromPreset(*p), nil
}

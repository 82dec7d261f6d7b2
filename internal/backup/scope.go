package backup

import (
	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
)

// Mode says how a scope's collection set is interpreted.
type Mode string

const (
	ScopeAll     Mode = "all"
	ScopeInclude Mode = "include"
	ScopeExclude Mode = "exclude"
)

// Scope selects which collections a backup targets.
type Scope struct {
	Mode        Mode
	Collections []string
}

// All returns the unrestricted scope.
func All() Scope { return Scope{Mode: ScopeAll} }

// ScopeFromPreset converts a persisted preset into a runtime scope.
func ScopeFromPreset(p config.BackupPreset) Scope {
	return Scope{Mode: Mode(p.Mode), Collections: p.Collections}
}

func (s Scope) Validate() error {
	switch s.Mode {
	case ScopeAll:
		return nil
	case ScopeInclude, ScopeExclude:
		if len(s.Collections) == 0 {
			return errdefs.Validationf("scope mode %q requires at least one collection", s.Mode)
		}
		return nil
	default:
		return errdefs.Validationf("unknown scope mode %q", s.Mode)
	}
}

package app

import (
	"github.com/sirupsen/logrus"

	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/preset"
)

// AddPreset stores a new preset and persists the config snapshot.
func AddPreset(cfg *config.AppConfig, configPath string, p config.BackupPreset) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := preset.NewStore(cfg).Add(p); err != nil {
		return err
	}
	return cfg.Save(configPath)
}

// RemovePreset drops a preset by name and persists the config snapshot.
// Removing an unknown preset is a no-op and does not rewrite the file.
func RemovePreset(cfg *config.AppConfig, configPath, name string) error {
	if !preset.NewStore(cfg).Remove(name) {
		logrus.WithField("preset", name).Warn("preset does not exist, nothing removed")
		return nil
	}
	return cfg.Save(configPath)
}

// ListPresets returns the stored presets for display.
func ListPresets(cfg *config.AppConfig) []config.BackupPreset {
	return preset.NewStore(cfg).List()
}

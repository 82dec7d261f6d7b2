package config

import "github.com/mongokit/mongokit/internal/errdefs"

// Validate checks the loaded snapshot before any run starts.
func (c *AppConfig) Validate() error {
	if c.BackupDir == "" {
		return errdefs.Validationf("backupDir is required")
	}

	connNames := map[string]struct{}{}
	for i, conn := range c.Connections {
		if conn.Name == "" {
			return errdefs.Validationf("connections[%d].name is required", i)
		}
		if _, ok := connNames[conn.Name]; ok {
			return errdefs.Validationf("duplicate connection name %q", conn.Name)
		}
		connNames[conn.Name] = struct{}{}

		if conn.URI == "" && conn.Host == "" {
			return errdefs.Validationf("connection %q needs a uri or a host", conn.Name)
		}
		if conn.Database == "" {
			return errdefs.Validationf("connection %q: database is required", conn.Name)
		}
		if conn.SSH != nil {
			if conn.SSH.Host == "" || conn.SSH.User == "" {
				return errdefs.Validationf("connection %q: ssh.host and ssh.user are required", conn.Name)
			}
			if conn.SSH.Password == "" && conn.SSH.KeyFile == "" {
				return errdefs.Validationf("connection %q: ssh needs a password or a keyFile", conn.Name)
			}
		}
	}

	presetNames := map[string]struct{}{}
	for i, p := range c.BackupPresets {
		if p.Name == "" {
			return errdefs.Validationf("backupPresets[%d].name is required", i)
		}
		if _, ok := presetNames[p.Name]; ok {
			return errdefs.Validationf("duplicate preset name %q", p.Name)
		}
		presetNames[p.Name] = struct{}{}

		if _, ok := connNames[p.Source]; !ok {
			return errdefs.Validationf("preset %q references unknown connection %q", p.Name, p.Source)
		}
		switch p.Mode {
		case "all":
		case "include", "exclude":
			if len(p.Collections) == 0 {
				return errdefs.Validationf("preset %q: mode %q requires collections", p.Name, p.Mode)
			}
		default:
			return errdefs.Validationf("preset %q: unknown mode %q", p.Name, p.Mode)
		}
	}

	if c.Offsite != nil && c.Offsite.Enabled {
		if c.Offsite.Bucket == "" || c.Offsite.Region == "" {
			return errdefs.Validationf("offsite: bucket and region are required when enabled")
		}
	}

	return nil
}

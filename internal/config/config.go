package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultFilenameFormat = "backup_{datetime}_{source}.gz"
	DefaultMongodumpPath  = "mongodump"
	DefaultRestorePath    = "mongorestore"
)

// AppConfig is the root persisted state. It is loaded once per
// invocation and treated as an immutable snapshot except for preset
// mutations, which are written back through Save.
type AppConfig struct {
	BackupDir        string         `mapstructure:"backupDir" json:"backupDir"`
	FilenameFormat   string         `mapstructure:"filenameFormat" json:"filenameFormat"`
	MongodumpPath    string         `mapstructure:"mongodumpPath" json:"mongodumpPath"`
	MongorestorePath string         `mapstructure:"mongorestorePath" json:"mongorestorePath"`
	Gzip             bool           `mapstructure:"gzip" json:"gzip"`
	Connections      []Connection   `mapstructure:"connections" json:"connections"`
	BackupPresets    []BackupPreset `mapstructure:"backupPresets" json:"backupPresets"`

	Offsite       *OffsiteConfig       `mapstructure:"offsite" json:"offsite,omitempty"`
	Notifications []NotificationConfig `mapstructure:"notifications" json:"notifications,omitempty"`
}

// Connection describes one reachable database endpoint. When SSH is set
// the dump tool runs on the remote host and the archive is streamed back.
type Connection struct {
	Name     string     `mapstructure:"name" json:"name"`
	URI      string     `mapstructure:"uri" json:"uri,omitempty"`
	Host     string     `mapstructure:"host" json:"host,omitempty"`
	Port     int        `mapstructure:"port" json:"port,omitempty"`
	Database string     `mapstructure:"database" json:"database"`
	Username string     `mapstructure:"username" json:"username,omitempty"`
	Password string     `mapstructure:"password" json:"password,omitempty"`
	SSH      *SSHConfig `mapstructure:"ssh" json:"ssh,omitempty"`
}

// Remote reports whether the connection is reached over SSH.
func (c Connection) Remote() bool { return c.SSH != nil }

type SSHConfig struct {
	Host           string `mapstructure:"host" json:"host"`
	Port           int    `mapstructure:"port" json:"port"`
	User           string `mapstructure:"user" json:"user"`
	Password       string `mapstructure:"password" json:"password,omitempty"`
	KeyFile        string `mapstructure:"keyFile" json:"keyFile,omitempty"`
	KnownHostsFile string `mapstructure:"knownHostsFile" json:"knownHostsFile,omitempty"`
}

// BackupPreset is a named selection scope bound to a connection.
type BackupPreset struct {
	Name        string    `mapstructure:"name" json:"name"`
	Source      string    `mapstructure:"source" json:"source"`
	Mode        string    `mapstructure:"mode" json:"mode"`
	Collections []string  `mapstructure:"collections" json:"collections,omitempty"`
	CreatedAt   time.Time `mapstructure:"createdAt" json:"createdAt"`
}

// OffsiteConfig enables uploading promoted artifacts to S3.
type OffsiteConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Bucket    string `mapstructure:"bucket" json:"bucket"`
	Region    string `mapstructure:"region" json:"region"`
	Prefix    string `mapstructure:"prefix" json:"prefix,omitempty"`
	AccessKey string `mapstructure:"accessKey" json:"accessKey"`
	SecretKey string `mapstructure:"secretKey" json:"secretKey"`
}

type NotificationConfig struct {
	Type   string              `mapstructure:"type" json:"type"`
	On     []string            `mapstructure:"on" json:"on"`
	Config NotificationDetails `mapstructure:"config" json:"config"`
}

type NotificationDetails struct {
	URL      string            `mapstructure:"url" json:"url,omitempty"`
	Headers  map[string]string `mapstructure:"headers" json:"headers,omitempty"`
	SMTPHost string            `mapstructure:"smtpHost" json:"smtpHost,omitempty"`
	SMTPPort int               `mapstructure:"smtpPort" json:"smtpPort,omitempty"`
	From     string            `mapstructure:"from" json:"from,omitempty"`
	To       string            `mapstructure:"to" json:"to,omitempty"`
	Username string            `mapstructure:"username" json:"username,omitempty"`
	Password string            `mapstructure:"password" json:"password,omitempty"`
}

// Load reads the JSON config file at path into an AppConfig snapshot.
// A dedicated viper instance keeps loads independent and testable.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	applyDefaults(&cfg)
	expandEnv(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.FilenameFormat == "" {
		cfg.FilenameFormat = DefaultFilenameFormat
	}
	if cfg.MongodumpPath == "" {
		cfg.MongodumpPath = DefaultMongodumpPath
	}
	if cfg.MongorestorePath == "" {
		cfg.MongorestorePath = DefaultRestorePath
	}
	for i := range cfg.Connections {
		if cfg.Connections[i].Port == 0 && cfg.Connections[i].URI == "" {
			cfg.Connections[i].Port = 27017
		}
		if ssh := cfg.Connections[i].SSH; ssh != nil && ssh.Port == 0 {
			ssh.Port = 22
		}
	}
}

// expandEnv resolves ${VAR} references so secrets can live outside the
// config file.
func expandEnv(cfg *AppConfig) {
	cfg.BackupDir = os.ExpandEnv(cfg.BackupDir)
	cfg.MongodumpPath = os.ExpandEnv(cfg.MongodumpPath)
	cfg.MongorestorePath = os.ExpandEnv(cfg.MongorestorePath)

	for i := range cfg.Connections {
		conn := &cfg.Connections[i]
		conn.URI = os.ExpandEnv(conn.URI)
		conn.Host = os.ExpandEnv(conn.Host)
		conn.Database = os.ExpandEnv(conn.Database)
		conn.Username = os.ExpandEnv(conn.Username)
		conn.Password = os.ExpandEnv(conn.Password)
		if conn.SSH != nil {
			conn.SSH.Host = os.ExpandEnv(conn.SSH.Host)
			conn.SSH.User = os.ExpandEnv(conn.SSH.User)
			conn.SSH.Password = os.ExpandEnv(conn.SSH.Password)
			conn.SSH.KeyFile = os.ExpandEnv(conn.SSH.KeyFile)
			conn.SSH.KnownHostsFile = os.ExpandEnv(conn.SSH.KnownHostsFile)
		}
	}

	if cfg.Offsite != nil {
		cfg.Offsite.Bucket = os.ExpandEnv(cfg.Offsite.Bucket)
		cfg.Offsite.Region = os.ExpandEnv(cfg.Offsite.Region)
		cfg.Offsite.Prefix = os.ExpandEnv(cfg.Offsite.Prefix)
		cfg.Offsite.AccessKey = os.ExpandEnv(cfg.Offsite.AccessKey)
		cfg.Offsite.SecretKey = os.ExpandEnv(cfg.Offsite.SecretKey)
	}

	for i := range cfg.Notifications {
		nt := &cfg.Notifications[i]
		nt.Config.URL = os.ExpandEnv(nt.Config.URL)
		nt.Config.SMTPHost = os.ExpandEnv(nt.Config.SMTPHost)
		nt.Config.From = os.ExpandEnv(nt.Config.From)
		nt.Config.To = os.ExpandEnv(nt.Config.To)
		nt.Config.Username = os.ExpandEnv(nt.Config.Username)
		nt.Config.Password = os.ExpandEnv(nt.Config.Password)
		for k, val := range nt.Config.Headers {
			nt.Config.Headers[k] = os.ExpandEnv(val)
		}
	}
}

// Connection returns the named connection or nil.
func (c *AppConfig) Connection(name string) *Connection {
	for i := range c.Connections {
		if c.Connections[i].Name == name {
			return &c.Connections[i]
		}
	}
	return nil
}

// Preset returns the named preset or nil.
func (c *AppConfig) Preset(name string) *BackupPreset {
	for i := range c.BackupPresets {
		if c.BackupPresets[i].Name == name {
			return &c.BackupPresets[i]
		}
	}
	return nil
}

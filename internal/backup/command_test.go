package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongokit/mongokit/internal/config"
	"github.com/mongokit/mongokit/internal/errdefs"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		BackupDir:        "/var/backups/mongo",
		FilenameFormat:   "backup_{datetime}_{source}.gz",
		MongodumpPath:    "mongodump",
		MongorestorePath: "mongorestore",
	}
}

func hostConn() *config.Connection {
	return &config.Connection{
		Name:     "prod",
		Host:     "10.0.0.5",
		Port:     27017,
		Database: "app",
		Username: "backup",
		Password: "hunter2",
	}
}

func TestDumpArgsIncludeMode(t *testing.T) {
	b := NewBuilder(testConfig())
	args, err := b.DumpArgs(hostConn(), Scope{Mode: ScopeInclude, Collections: []string{"users", "orders"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"--host=10.0.0.5",
		"--port=27017",
		"--username=backup",
		"--password=hunter2",
		"--db=app",
		"--collection=users",
		"--collection=orders",
	}, args)
}

func TestDumpArgsExcludeMode(t *testing.T) {
	b := NewBuilder(testConfig())
	args, err := b.DumpArgs(hostConn(), Scope{Mode: ScopeExclude, Collections: []string{"logs"}})
	require.NoError(t, err)
	assert.Contains(t, args, "--excludeCollection=logs")
	assert.NotContains(t, args, "--collection=logs")
}

func TestDumpArgsAllModeHasNoCollectionFlags(t *testing.T) {
	b := NewBuilder(testConfig())
	args, err := b.DumpArgs(hostConn(), All())
	require.NoError(t, err)
	for _, a := range args {
		assert.NotContains(t, a, "--collection")
		assert.NotContains(t, a, "--excludeCollection")
	}
}

func TestDumpArgsURIWinsOverHost(t *testing.T) {
	b := NewBuilder(testConfig())
	conn := &config.Connection{
		Name:     "uri-conn",
		URI:      "mongodb://u:p@h:27017/app",
		Host:     "ignored",
		Port:     1,
		Database: "app",
	}
	args, err := b.DumpArgs(conn, All())
	require.NoError(t, err)
	assert.Equal(t, "--uri=mongodb://u:p@h:27017/app", args[0])
	assert.NotContains(t, args, "--host=ignored")
}

func TestDumpArgsGzipFlag(t *testing.T) {
	cfg := testConfig()
	cfg.Gzip = true
	args, err := NewBuilder(cfg).DumpArgs(hostConn(), All())
	require.NoError(t, err)
	assert.Contains(t, args, "--gzip")
}

func TestDumpArgsRejectsEmptyIncludeSet(t *testing.T) {
	b := NewBuilder(testConfig())
	_, err := b.DumpArgs(hostConn(), Scope{Mode: ScopeInclude})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err), "expected ValidationError, got %v", err)
}

func TestDumpArgsRejectsUnknownMode(t *testing.T) {
	b := NewBuilder(testConfig())
	_, err := b.DumpArgs(hostConn(), Scope{Mode: "some"})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestRestoreArgs(t *testing.T) {
	b := NewBuilder(testConfig())
	args := b.RestoreArgs(hostConn(), true)
	assert.Contains(t, args, "--nsInclude=app.*")
	assert.Contains(t, args, "--drop")

	args = b.RestoreArgs(hostConn(), false)
	assert.NotContains(t, args, "--drop")
}

func TestDestinationPath(t *testing.T) {
	b := NewBuilder(testConfig())
	ts := time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)
	got := b.DestinationPath(hostConn(), ts)
	assert.Equal(t, "/var/backups/mongo/backup_20260825_143005_prod.gz", got)
}

func TestCommandLineRedactsPassword(t *testing.T) {
	line := CommandLine("mongodump", []string{"--host=h", "--password=hunter2", "--db=app"})
	assert.NotContains(t, line, "hunter2")
	assert.Contains(t, line, "--password=***")
}

func TestCommandLineRedactsURICredentials(t *testing.T) {
	line := CommandLine("mongodump", []string{"--uri=mongodb://user:pass@h:27017/app"})
	assert.NotContains(t, line, "user:pass")
	assert.Contains(t, line, "mongodb://***@h:27017/app")
}

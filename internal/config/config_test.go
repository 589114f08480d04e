package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge/attachment-service/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attachments.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  name: attachment-service
  environment: test
server:
  http:
    host: 127.0.0.1
    port: 9090
storage:
  backend: disk
  root: /var/lib/attachments
  scratch_dir: /var/lib/scratch
  max_file_size: 5000000
  max_request_size: 20000000
  sweep_interval: 30m
  allowed_types:
    png: image/png
    pdf: application/pdf
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, "attachment-service", cfg.Service.Name)
	assert.Equal(t, 9090, cfg.Server.HTTP.Port)
	assert.Equal(t, config.BackendDisk, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/attachments", cfg.Storage.Root)
	assert.Equal(t, int64(5_000_000), cfg.Storage.MaxFileSize)
	assert.Equal(t, int64(20_000_000), cfg.Storage.MaxRequestSize)
	assert.Equal(t, 30*time.Minute, cfg.Storage.SweepInterval)
	assert.Equal(t, "image/png", cfg.Storage.AllowedTypes["png"])
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: disk
  root: /var/lib/attachments
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(10_000_000), cfg.Storage.MaxFileSize)
	assert.Equal(t, int64(25_000_000), cfg.Storage.MaxRequestSize)
	assert.Equal(t, time.Hour, cfg.Storage.SweepInterval)
	assert.NotEmpty(t, cfg.Storage.AllowedTypes)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_RequestCeilingBelowFileCeiling(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: disk
  root: /var/lib/attachments
  max_file_size: 10000000
  max_request_size: 5000000
`)
	t.Setenv("CONFIG_PATH", path)

	_, err := config.LoadConfig()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_request_size")
}

func TestLoadConfig_DiskBackendRequiresRoot(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: disk
`)
	t.Setenv("CONFIG_PATH", path)

	_, err := config.LoadConfig()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.root")
}

func TestLoadConfig_S3BackendRequiresBucket(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: s3
  s3:
    region: ap-northeast-2
`)
	t.Setenv("CONFIG_PATH", path)

	_, err := config.LoadConfig()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.s3.bucket")
}

func TestLoadConfig_UnknownBackend(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: tape
  root: /var/lib/attachments
`)
	t.Setenv("CONFIG_PATH", path)

	_, err := config.LoadConfig()

	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "taskforge",
		User:     "app",
		Password: "secret",
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=taskforge")
}

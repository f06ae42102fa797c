package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 720, cfg.JWT.TTLHours)
	assert.True(t, cfg.Push.Expo.Enabled)
}

func TestLoadPostgres(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
store:
  backend: postgres
  postgres:
    host: db
    user: skillswap
    password: pw
    dbname: skillswap
jwt:
  secret: s3cret
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "host=db port=5432 user=skillswap password=pw dbname=skillswap sslmode=disable",
		cfg.Store.Postgres.DSN())
}

func TestLoadLocalObjectStore(t *testing.T) {
	path := writeConfig(t, `
aws:
  s3_bucket: media
  endpoint: minio:9000
  disable_ssl: true
jwt:
  secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "minio:9000", cfg.AWS.Endpoint)
	assert.True(t, cfg.AWS.DisableSSL)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: ["))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "store:\n  backend: memory\n"))
	assert.ErrorContains(t, err, "jwt.secret")

	_, err = Load(writeConfig(t, "jwt:\n  secret: x\nstore:\n  backend: redis\n"))
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = Load(writeConfig(t, "jwt:\n  secret: x\nstore:\n  backend: firestore\n"))
	assert.ErrorContains(t, err, "project_id")
}

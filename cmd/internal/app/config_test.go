package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LIFTLOG_HTTP_ADDR", "")
	t.Setenv("LIFTLOG_DATABASE_URL", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
http_addr: 127.0.0.1:9000
log_format: pretty
read_timeout: 20s
db_max_conns: 4
db_migrate: false
cors_allowed_origins:
  - https://app.example.com
`)
	t.Setenv("LIFTLOG_HTTP_ADDR", "127.0.0.1:9100")
	t.Setenv("LIFTLOG_DB_MAX_CONNS", "")
	t.Setenv("LIFTLOG_CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.HTTPAddr, "env wins over file")
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, 20*time.Second, cfg.ReadTimeout)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.WriteTimeout, "unset keys keep defaults")
}

func TestLoadConfig_EnvList(t *testing.T) {
	t.Setenv("LIFTLOG_CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "http_adr: typo\n"))
	assert.Error(t, err, "unknown keys are rejected")

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err, "empty file is allowed")
	assert.Equal(t, DefaultConfig().HTTPAddr, cfg.HTTPAddr)
}

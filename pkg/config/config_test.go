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

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: mysql
  host: db
  port: 3306
  username: shop
  password: secret
  database: shoppurs
auth:
  jwt_secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "shoppurs-api", cfg.Server.Name)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.Dir)
	assert.Equal(t, "shop:secret@tcp(db:3306)/shoppurs?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Database.DSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: from-file
`)
	t.Setenv("SHOPPURS_AUTH_JWT_SECRET", "from-env")
	t.Setenv("SHOPPURS_DATABASE_DRIVER", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN(), "sslmode=disable")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"driver":  "database:\n  driver: oracle\nauth:\n  jwt_secret: x\n",
		"storage": "storage:\n  backend: s3\nauth:\n  jwt_secret: x\n",
		"secret":  "server:\n  port: 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_SecretFromEnvOnly(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	t.Setenv("SHOPPURS_AUTH_JWT_SECRET", "env-only")
	t.Setenv("SHOPPURS_REDIS_ADDR", "cache:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Auth.JWTSecret)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

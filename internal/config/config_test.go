package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ACCESS_TOKEN_PRIVATE_KEY", "access-private")
	t.Setenv("ACCESS_TOKEN_PUBLIC_KEY", "access-public")
	t.Setenv("REFRESH_TOKEN_PRIVATE_KEY", "refresh-private")
	t.Setenv("REFRESH_TOKEN_PUBLIC_KEY", "refresh-public")
}

func TestLoad_DefaultValues(t *testing.T) {
	setKeyEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 8760*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "/", cfg.Cookie.Path)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "primary", cfg.Sessions.Store)
	assert.Equal(t, 4, cfg.Query.DefaultLimit)
	assert.Equal(t, 100, cfg.Query.MaxLimit)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	setKeyEnv(t)
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("DB_DRIVER", "mongo")
	t.Setenv("QUERY_DEFAULT_LIMIT", "10")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
}

func TestLoad_FileWithEnvOverlay(t *testing.T) {
	setKeyEnv(t)
	t.Setenv("HTTP_PORT", "7070")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
env: dev
http:
  port: "6060"
cookie:
  domain: tours.example.com
sessions:
  store: postgres
  postgres_dsn: postgres://u:p@localhost:5432/sessions
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, "7070", cfg.HTTP.Port, "env must win over the file")
	assert.Equal(t, "tours.example.com", cfg.Cookie.Domain)
	assert.Equal(t, "postgres", cfg.Sessions.Store)
}

func TestLoad_MissingKeysFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ACCESS_TOKEN_PRIVATE_KEY", "")
	t.Setenv("ACCESS_TOKEN_PUBLIC_KEY", "")
	t.Setenv("REFRESH_TOKEN_PRIVATE_KEY", "")
	t.Setenv("REFRESH_TOKEN_PUBLIC_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token key pair")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Auth: AuthConfig{
				AccessPrivateKey:  "a",
				AccessPublicKey:   "b",
				RefreshPrivateKey: "c",
				RefreshPublicKey:  "d",
				AccessTokenTTL:    time.Minute,
				RefreshTokenTTL:   time.Hour,
				BcryptCost:        10,
			},
			Database: DBConfig{Driver: "memory"},
			Sessions: SessionsConfig{Store: "primary"},
			Query:    QueryConfig{DefaultLimit: 4, MaxLimit: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: "DB_DRIVER"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Sessions.Store = "postgres" }, wantErr: "SESSION_POSTGRES_DSN"},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, wantErr: "BCRYPT_COST"},
		{name: "limits", mutate: func(c *Config) { c.Query.MaxLimit = 1 }, wantErr: "query limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

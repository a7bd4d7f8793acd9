package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `session_key: "0123456789abcdef0123456789abcdef"`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3003", cfg.Listen)
	assert.Equal(t, 172800, cfg.SessionMaxAge)
	assert.True(t, cfg.Gzip)
	assert.False(t, cfg.SecureCookies)

	require.NotNil(t, cfg.Database)
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/lendbook.db", cfg.Database.Path)

	require.NotNil(t, cfg.Cache)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 300, cfg.Cache.TTL)

	require.NotNil(t, cfg.Auth)
	assert.False(t, cfg.Auth.AllowAdminSignup)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
listen: " 127.0.0.1:8080 "
session_key: "0123456789abcdef0123456789abcdef"
session_max_age: 600
database:
  driver: POSTGRES
  dsn: "host=localhost user=lendbook dbname=lendbook"
cache:
  type: redis
  redis_url: "localhost:6379"
  ttl: 60
auth:
  allow_admin_signup: true
  min_password_length: 12
  bcrypt_cost: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, 600, cfg.SessionMaxAge)
	assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "host=localhost user=lendbook dbname=lendbook", cfg.Database.DSN)
	assert.Equal(t, CacheTypeRedis, cfg.Cache.Type)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 60, cfg.Cache.TTL)
	assert.True(t, cfg.Auth.AllowAdminSignup)
	assert.Equal(t, 12, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `session_key: "0123456789abcdef0123456789abcdef"`)
	t.Setenv("LENDBOOK_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("LENDBOOK_LISTEN", "127.0.0.1:9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Listen:        ":3003",
			SessionKey:    "0123456789abcdef0123456789abcdef",
			SessionMaxAge: 3600,
			Database:      &DatabaseConfig{Driver: DatabaseDriverSQLite, Path: "lendbook.db"},
			Cache:         &CacheConfig{Type: CacheTypeMemory, TTL: 60},
			Auth:          &AuthConfig{MinPasswordLength: 8, BcryptCost: bcrypt.DefaultCost},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing session key", mutate: func(c *Config) { c.SessionKey = "" }, wantErr: "session key is required"},
		{name: "zero session age", mutate: func(c *Config) { c.SessionMaxAge = 0 }, wantErr: "session max age"},
		{name: "missing sqlite path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database path is required"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DatabaseDriverPostgres }, wantErr: "database dsn is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unsupported database driver"},
		{name: "redis without url", mutate: func(c *Config) { c.Cache.Type = CacheTypeRedis }, wantErr: "redis url is required"},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Type = "memcached" }, wantErr: "unsupported cache type"},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.TTL = 0 }, wantErr: "cache ttl"},
		{name: "zero password length", mutate: func(c *Config) { c.Auth.MinPasswordLength = 0 }, wantErr: "minimum password length"},
		{name: "bcrypt cost too high", mutate: func(c *Config) { c.Auth.BcryptCost = bcrypt.MaxCost + 1 }, wantErr: "bcrypt cost"},
		{name: "missing auth", mutate: func(c *Config) { c.Auth = nil }, wantErr: "auth config is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

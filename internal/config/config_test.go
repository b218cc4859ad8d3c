// AngelaMos | 2026
// config_test.go

package config

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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/storefront
redis:
  url: redis://localhost:6379/0
server:
  port: 9090
`)

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", c.Server.Address())
	assert.Equal(t, time.Hour, c.JWT.AccessTokenExpire)
	assert.Equal(t, 10*time.Minute, c.Cache.TTL)
	assert.True(t, c.Cache.Enabled)
	assert.True(t, c.Database.AutoMigrate)
	assert.False(t, c.Kafka.Enabled)
	assert.Equal(t, "development", c.App.Environment)
	assert.False(t, c.IsProduction())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/db
redis:
  url: redis://file:6379/0
`)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", c.Database.URL)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	path := writeConfig(t, `
redis:
  url: redis://localhost:6379/0
`)

	_, err := load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://x"},
			Redis:    RedisConfig{URL: "redis://x"},
			JWT: JWTConfig{
				PrivateKeyPath:    "a",
				PublicKeyPath:     "b",
				AccessTokenExpire: time.Hour,
			},
			Cache:  CacheConfig{Enabled: true, TTL: time.Minute},
			Server: ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name: "cors wildcard with credentials",
			mutate: func(c *Config) {
				c.CORS.AllowCredentials = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			wantErr: "CORS wildcard",
		},
		{
			name: "kafka without topic",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = []string{"localhost:9092"}
			},
			wantErr: "KAFKA_TOPIC",
		},
		{
			name:    "short admin password",
			mutate:  func(c *Config) { c.Seed.AdminEmail = "a@b.c"; c.Seed.AdminPassword = "x" },
			wantErr: "SEED_ADMIN_PASSWORD",
		},
		{
			name: "generated keys in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.GenerateKeys = true
			},
			wantErr: "JWT_GENERATE_KEYS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)

			err := validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKafkaConfig_BrokerList(t *testing.T) {
	k := KafkaConfig{Brokers: []string{"a:9092, b:9092", "", "c:9092"}}
	assert.Equal(t, []string{"a:9092", "b:9092", "c:9092"}, k.BrokerList())
}

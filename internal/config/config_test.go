package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "STORE_DRIVER", "MONGO_URI", "DB_NAME", "SQLITE_PATH", "JWT_SECRET",
	"SERVICE_SECRET", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOW_ORIGINS",
	"STORE_CONNECT_TIMEOUT", "ENV_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("SERVICE_SECRET", "svc")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "userdb", cfg.DBName)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("SERVICE_SECRET", "svc")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("STORE_CONNECT_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{"SERVICE_SECRET": "svc"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "missing service secret",
			env:     map[string]string{"JWT_SECRET": "jwt"},
			wantErr: "SERVICE_SECRET is required",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"JWT_SECRET": "jwt", "SERVICE_SECRET": "svc", "STORE_DRIVER": "redis"},
			wantErr: `STORE_DRIVER: unknown driver "redis"`,
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"JWT_SECRET": "jwt", "SERVICE_SECRET": "svc", "STORE_CONNECT_TIMEOUT": "soon"},
			wantErr: "STORE_CONNECT_TIMEOUT",
		},
		{
			name:    "negative timeout",
			env:     map[string]string{"JWT_SECRET": "jwt", "SERVICE_SECRET": "svc", "STORE_CONNECT_TIMEOUT": "-1s"},
			wantErr: "STORE_CONNECT_TIMEOUT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, so the keys
	// it should populate must be absent rather than empty.
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("SERVICE_SECRET")
	os.Unsetenv("PORT")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("SERVICE_SECRET")
		os.Unsetenv("PORT")
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nSERVICE_SECRET=svc-file\nPORT=9000\n"), 0o600))
	t.Setenv("ENV_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "svc-file", cfg.ServiceSecret)
	assert.Equal(t, "9000", cfg.Port)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("SERVICE_SECRET", "svc")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()
	assert.NoError(t, err)
}

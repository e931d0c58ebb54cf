package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "appointments", cfg.KafkaTopic)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=from-file\nSTORE_DRIVER=memory\nKAFKA_BROKERS=k1:9092,k2:9092\nENV=production\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"JWT_SECRET", "STORE_DRIVER", "KAFKA_BROKERS", "ENV"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env:  map[string]string{"STORE_DRIVER": "memory"},
		},
		{
			name: "postgres without dsn",
			env:  map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "postgres"},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "mongo"},
		},
		{
			name: "admin email without password",
			env:  map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "ADMIN_EMAIL": "a@b.c"},
		},
		{
			name: "bad timezone",
			env:  map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "TIMEZONE": "Mars/Olympus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			os.Unsetenv("JWT_SECRET")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

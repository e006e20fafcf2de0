package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "MAX_UPLOAD_MB", "MIR_TIMEOUT", "MIR_DRY_RUN", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 20, cfg.MaxUploadMB)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 8*time.Second, cfg.MiR.Timeout)
	assert.True(t, cfg.MiR.DryRun)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("MIR_DRY_RUN", "0")
	t.Setenv("MIR_MISSION_EMBALLAGE", "guid-pack")
	t.Setenv("LOCK_TTL", "2s")

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MiR.DryRun)
	assert.Equal(t, "guid-pack", cfg.MiR.MissionPackaging)
	assert.Equal(t, 2*time.Second, cfg.LockTTL)
}

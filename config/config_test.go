package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHIRP_SERVER_PORT", "9090")
	t.Setenv("CHIRP_DATABASE_DRIVER", "sqlite")
	t.Setenv("CHIRP_PUSH_DRIVER", "nats")
	t.Setenv("CHIRP_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "nats", cfg.Push.Driver)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1<<20), cfg.S3.MaxUploadBytes)
	assert.Equal(t, 60*time.Second, cfg.S3.URLExpiry)
	assert.Equal(t, 4, cfg.Push.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ProfileTTL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "chirp", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=chirp port=5433 sslmode=disable TimeZone=UTC", d.DSN())
}

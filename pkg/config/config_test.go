package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DatabaseURL)
	assert.True(t, cfg.DispatcherSessionsEnabled)
	assert.Equal(t, 5, cfg.DispatcherSessionsPollSecs)
	assert.True(t, cfg.DispatcherNotifEnabled)
	assert.Equal(t, 3, cfg.DispatcherNotifPollSecs)
	assert.Equal(t, 20, cfg.DispatcherNotifBatchSize)
	assert.Equal(t, ":8080", cfg.IngressListenAddr)
	assert.True(t, cfg.CoreDisabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CAPTURE_DATABASE_URL", "postgres://localhost/capturequeue")
	t.Setenv("CAPTURE_DISPATCHER_SESSIONS_POLL_SECONDS", "0")
	t.Setenv("CAPTURE_DISPATCHER_NOTIFICATIONS_BATCH_SIZE", "500")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/capturequeue", cfg.DatabaseURL)
	assert.False(t, cfg.CoreDisabled())
	// floor(0, 1) => 1
	assert.Equal(t, 1, cfg.DispatcherSessionsPollSecs)
	// clamp(500, 1, 100) => 100
	assert.Equal(t, 100, cfg.DispatcherNotifBatchSize)
}

func TestFloorAndClamp(t *testing.T) {
	assert.Equal(t, 1, floor(0, 1))
	assert.Equal(t, 1, floor(-5, 1))
	assert.Equal(t, 5, floor(5, 1))

	assert.Equal(t, 1, clamp(0, 1, 100))
	assert.Equal(t, 100, clamp(1000, 1, 100))
	assert.Equal(t, 20, clamp(20, 1, 100))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"DB_DSN": "postgres://localhost/booking"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 2*time.Second, cfg.LockWait)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.Equal(t, "booking-notifications", cfg.KafkaTopic)
}

func TestFromEnvMemoryNeedsNoDSN(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"STORAGE":           "Memory",
		"LOCK_WAIT":         "750ms",
		"NOTIFY_QUEUE_SIZE": "16",
	}))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 750*time.Millisecond, cfg.LockWait)
	assert.Equal(t, 16, cfg.NotifyQueueSize)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"postgres without dsn", map[string]string{}},
		{"unknown storage", map[string]string{"STORAGE": "sqlite"}},
		{"bad lock wait", map[string]string{"STORAGE": "memory", "LOCK_WAIT": "soon"}},
		{"negative queue", map[string]string{"STORAGE": "memory", "NOTIFY_QUEUE_SIZE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.values))
			assert.Error(t, err)
		})
	}
}

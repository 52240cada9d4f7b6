package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Arrange
	t.Setenv("DB_PATH", "/var/lib/logstore/data.db")
	t.Setenv("TCP_PORT", "9000")
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("ZMQ_API_PORT", "9002")
	t.Setenv("INDEX_SNAPSHOT", "true")
	t.Setenv("CREATE_DB", "false")
	t.Setenv("LOG_LEVEL", "debug")

	// Act
	cfg := LoadConfig()

	// Assert
	assert.Equal(t, "/var/lib/logstore/data.db", cfg.DbPath)
	assert.Equal(t, 9000, cfg.TcpPort)
	assert.Equal(t, 9001, cfg.HttpPort)
	assert.Equal(t, 9002, cfg.ZmqApiPort)
	assert.True(t, cfg.IndexSnapshot)
	assert.False(t, cfg.CreateDb)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "TCP_PORT", "HTTP_PORT", "ZMQ_API_PORT", "INDEX_SNAPSHOT", "CREATE_DB", "LOG_LEVEL", "HOST"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "logstore.db", cfg.DbPath)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.TcpPort)
	assert.Equal(t, 3000, cfg.HttpPort)
	assert.Equal(t, 5555, cfg.ZmqApiPort)
	assert.True(t, cfg.CreateDb)
	assert.False(t, cfg.IndexSnapshot)
	assert.Equal(t, "info", cfg.LogLevel)
}

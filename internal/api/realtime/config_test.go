package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("ORDERDESK_WS_ORIGINS", "https://a.example.com, https://b.example.com,")
	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"*", "http://localhost:5173"}}
	assert.NoError(t, cfg.Validate())

	cfg.AllowedOrigins = []string{"orders.example.com"}
	assert.Error(t, cfg.Validate())
}

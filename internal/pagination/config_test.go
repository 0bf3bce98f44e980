package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Lifecycle(t *testing.T) {
	cfg := Config{SearchPageSize: 25}
	cfg.ApplyDefaults()
	cfg.ApplyEnvOverrides()
	cfg.ResolvePaths("config", "data")

	assert.Equal(t, Config{
		BrowsePageSize: DefaultBrowsePageSize,
		SearchPageSize: 25,
		FetchTimeout:   15 * time.Second,
	}, cfg)
	require.NoError(t, cfg.Validate())

	cfg.BrowsePageSize = -1
	assert.Error(t, cfg.Validate())
}

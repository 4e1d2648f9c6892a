package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.host)
	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, 60, cfg.tickRate)
	assert.Equal(t, 32, cfg.maxClients)
}

func TestParseConfigRejectsBadPort(t *testing.T) {
	_, err := parseConfig([]string{"-port", "0"})
	assert.Error(t, err)
}

func TestParseConfigRejectsBadLogLevel(t *testing.T) {
	_, err := parseConfig([]string{"-log-level", "verbose"})
	assert.Error(t, err)
}

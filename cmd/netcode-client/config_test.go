package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.server)
	assert.Equal(t, 0, cfg.fakePing)
}

func TestParseConfigRejectsNegativeFakePing(t *testing.T) {
	_, err := parseConfig([]string{"-fake-ping", "-5"})
	assert.Error(t, err)
}

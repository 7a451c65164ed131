package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-log-format", "JSON", "-epochs", "20", "-seed", "0", "net.hcl"}, &out)
	require.NoError(t, err)
	assert.False(t, exit)

	assert.Equal(t, "net.hcl", cfg.ConfigPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.LogEvery)
	assert.Equal(t, 20, cfg.Epochs)
	require.NotNil(t, cfg.Seed, "an explicit zero seed is an override")
	assert.Equal(t, int64(0), *cfg.Seed)
}

func TestParseConfigFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"-c", "short.hcl", "positional.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "short.hcl", cfg.ConfigPath)
	assert.Nil(t, cfg.Seed)

	cfg, _, err = Parse([]string{"-config", "long.hcl", "-c", "short.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "long.hcl", cfg.ConfigPath)
}

func TestParseCheckpointFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"-load", "in.safetensors", "-save", "out.safetensors", "net.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "in.safetensors", cfg.LoadPath)
	assert.Equal(t, "out.safetensors", cfg.SavePath)

	cfg, _, err = Parse([]string{"net.hcl"}, &out)
	require.NoError(t, err)
	assert.Empty(t, cfg.LoadPath)
	assert.Empty(t, cfg.SavePath)
}

func TestParseExits(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "CONFIG_PATH")

	out.Reset()
	_, exit, err = Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-workers", "4", "net.hcl"}},
		{"log format", []string{"-log-format", "xml", "net.hcl"}},
		{"log level", []string{"-log-level", "trace", "net.hcl"}},
		{"epochs", []string{"-epochs", "-3", "net.hcl"}},
		{"epochs type", []string{"-epochs", "many", "net.hcl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, exit, err := Parse(tt.args, &out)
			assert.False(t, exit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

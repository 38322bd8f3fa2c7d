package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
targets:
  - 127.0.0.1
  - example.com
timeout: 1500ms
retry: 2
ignore_lookup_errors: true
payload_size: 56
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1", "example.com"}, cfg.Targets)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 2, cfg.Retry)
	assert.True(t, cfg.IgnoreLookupErrors)
	assert.Equal(t, uint(56), cfg.PayloadSize)
	// untouched keys keep their default
	assert.Equal(t, time.Second, cfg.Interval)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry: [1"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

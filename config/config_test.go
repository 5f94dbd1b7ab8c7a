package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
Mode: client
Count: 5
Module:
  IsStackBuf: true
Log:
  Mode: stdout
  Level: debug
Transport:
  Network: ws
  Addr: 127.0.0.1:9000
  Path: /echo
  MaxConn: 10
  PendingWrite: 10
  MaxQueued: 16
  MaxMsgSize: 4096
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeClient, c.Mode)
	assert.Equal(t, 5, c.Count)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, NetworkWS, c.Transport.Network)
	assert.Equal(t, "/echo", c.Transport.Path)
	assert.Equal(t, uint32(4096), c.Transport.MaxMsgSize)
	assert.False(t, c.Metrics.Enabled)
	assert.True(t, c.Module.IsStackBuf)
	assert.Equal(t, 4096, c.Module.StackBufLen)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Mode: proxy\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

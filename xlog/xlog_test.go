package xlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	prev := Write()
	defer func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}()

	dir := t.TempDir()
	Load(&Conf{
		ServiceName: "test",
		Path:        dir,
		Filename:    "test.log",
		Mode:        FileMode,
		Encoding:    EncodingJson,
		Level:       "warn",
	})

	Write().Info("dropped")
	Write().Warn("kept")
	_ = Sync()

	b, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"kept"`)
	assert.Contains(t, string(b), `"service":"test"`)
	assert.NotContains(t, string(b), "dropped")
}

func TestDefaultConf(t *testing.T) {
	conf := &Conf{}
	defaultConf(conf)
	assert.Equal(t, StdoutMode, conf.Mode)
	assert.Equal(t, "info", conf.Level)
	assert.NotEmpty(t, conf.Path)
}

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabledByDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "off.log")

	log, closeFn, err := Setup(false, path)
	require.NoError(t, err)
	log.Infow("dropped", "k", 1)
	closeFn()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	log, closeFn, err := Setup(true, path)
	require.NoError(t, err)
	log.Infow("match started", "match", "abc")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "match started")
	assert.Contains(t, string(data), "abc")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	log, _, _ := Setup(false, "")
	assert.Same(t, log, OrNop(log))
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/tecla/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitLayoutAndKeys(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "missing.yaml")
	layout := filepath.Join(dir, "piano_config.json")

	_, err := execute(t, "init-layout", layout, "--settings", settings)
	require.NoError(t, err)

	saved, err := config.LoadFile(layout)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), saved)

	_, err = execute(t, "init-layout", layout, "--settings", settings)
	assert.Error(t, err, "existing file is not overwritten")

	out, err := execute(t, "keys", "--settings", settings, "--layout", layout)
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "C.wav")
	assert.Contains(t, out, "window 1280x720")
}

func TestInitSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tecla.yaml")

	_, err := execute(t, "init-settings", path)
	require.NoError(t, err)

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), s)

	_, err = execute(t, "init-settings", path)
	assert.Error(t, err, "existing file is not overwritten")
}

func TestWebDir(t *testing.T) {
	assert.Equal(t, "/srv/web", webDir("/srv/web"))
}

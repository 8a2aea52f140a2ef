package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mjc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
optimizations:
  const_prop: true
  dead_code: false
  cfg_simplify: false
  dead_allocs: true
diagnostics:
  color: never
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Optimizations.DeadCode)
	assert.False(t, *cfg.Optimizations.DeadCode)
	require.NotNil(t, cfg.Optimizations.ConstProp)
	assert.True(t, *cfg.Optimizations.ConstProp)
	assert.Equal(t, "never", cfg.Diagnostics.Color)
	assert.False(t, cfg.UseColor())
	assert.Len(t, cfg.Options(), 4)
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, `
optimizations:
  dead_code: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Nil(t, cfg.Optimizations.ConstProp)
	assert.Len(t, cfg.Options(), 1)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "optimizations: [not, a, mapping]")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidColor(t *testing.T) {
	path := writeConfig(t, "diagnostics:\n  color: sometimes\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadIfPresentMissing(t *testing.T) {
	cfg, err := LoadIfPresent(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Optimizations.DeadCode)
	assert.Empty(t, cfg.Options())
}

func TestColorAlways(t *testing.T) {
	cfg := &Config{Diagnostics: Diagnostics{Color: "always"}}
	assert.True(t, cfg.UseColor())
}

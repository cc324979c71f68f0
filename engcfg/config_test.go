package engcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10000000, cfg.Limits.MaxOpenStatements)
	assert.Equal(t, 100, cfg.Limits.MaxNestedMacros)
	assert.Equal(t, 9999, cfg.Limits.MaxSysndx)
	assert.Equal(t, 4096, cfg.Limits.DefaultActr)
	assert.Equal(t, 2000, cfg.Limits.YieldEvery)
	assert.True(t, cfg.Debugger.ShowSource)
	assert.Equal(t, 1000, cfg.Debugger.HistorySize)
}

func TestConfigPathEndsInHlasmToml(t *testing.T) {
	path := ConfigPath()
	assert.NotEmpty(t, path)
	assert.Equal(t, "hlasm.toml", filepath.Base(path))
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hlasm.toml")

	cfg := DefaultConfig()
	cfg.Limits.MaxNestedMacros = 250
	cfg.Logging.Verbose = true
	cfg.Library.SearchPaths = []string{"./macros", "./copybooks"}

	require.NoError(t, cfg.SaveTo(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 250, loaded.Limits.MaxNestedMacros)
	assert.True(t, loaded.Logging.Verbose)
	assert.Equal(t, []string{"./macros", "./copybooks"}, loaded.Library.SearchPaths)
}

func TestLoadFromMalformedFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hlasm.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

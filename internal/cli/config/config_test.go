package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig_Defaults tests that defaults apply with no file, env, or flags.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "database"), cfg.DatabaseDir)
	assert.Equal(t, filepath.Join(tmpDir, "reports"), cfg.ReportsDir)
	assert.InDelta(t, 0.6, cfg.Threshold, 1e-9)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, "sqlite", cfg.GetHistoryConfig().Driver)
	assert.Equal(t, filepath.Join(tmpDir, ".fishdoc", "history.db"), cfg.GetHistoryConfig().Path)
	assert.Empty(t, GetConfigFileUsed())
}

// TestLoadConfig_File tests loading values from fishdoc.yaml.
func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "fishdoc.yaml")
	cfgContent := `database_dir: kb
threshold: 0.75
history:
  driver: sqlite
  path: state/history.db
ui:
  port: 9000
  watch: false
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "kb"), cfg.DatabaseDir, "paths resolve relative to project root")
	assert.InDelta(t, 0.75, cfg.Threshold, 1e-9)
	assert.Equal(t, filepath.Join(tmpDir, "state", "history.db"), cfg.GetHistoryConfig().Path)
	assert.Equal(t, 9000, cfg.GetUIConfig().Port)
	assert.False(t, cfg.GetUIConfig().Watch)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, cfg, GetCurrentConfig())
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	cfgPath := filepath.Join(tmpDir, "fishdoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database_dir: from_file\n"), 0600))

	t.Setenv("FISHDOC_DATABASE_DIR", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database-dir", "", "knowledge base directory")
	require.NoError(t, flags.Set("database-dir", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	// Flag should win, resolved against CWD
	assert.Equal(t, filepath.Join(tmpDir, "from_flag"), cfg.DatabaseDir,
		"flag value should override config file and env var")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override the config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "fishdoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("species: goldfish\n"), 0600))

	t.Setenv("FISHDOC_SPECIES", "betta")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "betta", cfg.Species, "env var should override config file")
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "fishdoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("species: goldfish\n"), 0600))

	t.Setenv("FISHDOC_SPECIES", "betta")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("species", "", "fish species")
	// Note: not calling flags.Set(), so Changed is false

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "betta", cfg.Species, "env var should be used when flag is not set")
}

// TestLoadConfig_HistoryFlagMapsToNestedKey tests the --history flag remap.
func TestLoadConfig_HistoryFlagMapsToNestedKey(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("history", "", "history database path")
	require.NoError(t, flags.Set("history", "custom/history.db"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "custom", "history.db"), cfg.GetHistoryConfig().Path)
}

// TestLoadConfig_MemoryHistoryNotResolved tests that :memory: stays as-is.
func TestLoadConfig_MemoryHistoryNotResolved(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("history", "", "history database path")
	require.NoError(t, flags.Set("history", ":memory:"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.GetHistoryConfig().Path)
}

// TestInferProjectRoot_UpwardSearch tests the upward search for fishdoc.yaml.
func TestInferProjectRoot_UpwardSearch(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "fishdoc.yaml"), []byte("threshold: 0.5\n"), 0600))
	nested := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	// Symlinked temp dirs can make string comparison flaky, so compare resolved paths
	wantRoot, err := filepath.EvalSymlinks(tmpDir)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
	assert.InDelta(t, 0.5, cfg.Threshold, 1e-9)
}

// TestInferProjectRoot_DatabaseDirAnchor tests root inference from --database-dir.
func TestInferProjectRoot_DatabaseDirAnchor(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	dbDir := filepath.Join(tmpDir, "project", "database")
	require.NoError(t, os.MkdirAll(dbDir, 0750))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database-dir", "", "knowledge base directory")
	require.NoError(t, flags.Set("database-dir", dbDir))

	root := inferProjectRoot(flags)
	assert.Equal(t, filepath.Join(tmpDir, "project"), root,
		"a directory named database anchors its parent as project root")
}

// TestConfig_Validate tests the Config.Validate method.
func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{DatabaseDir: "database", Threshold: 0.6}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty database_dir", func(t *testing.T) {
		cfg := &Config{Threshold: 0.6}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database_dir is required")
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := &Config{DatabaseDir: "database", Threshold: 1.5}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "threshold must be between")
	})

	t.Run("unsupported history driver", func(t *testing.T) {
		cfg := &Config{
			DatabaseDir: "database",
			Threshold:   0.6,
			History:     &HistoryConfig{Driver: "mysql"},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported history driver")
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := &Config{
			DatabaseDir: "database",
			Threshold:   0.6,
			History:     &HistoryConfig{Driver: "postgres"},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history.dsn is required")
	})
}

// TestGetUIConfig_Defaults tests UI config defaulting.
func TestGetUIConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	ui := cfg.GetUIConfig()
	assert.Equal(t, 8712, ui.Port)
	assert.True(t, ui.AutoOpen)
	assert.True(t, ui.Watch)

	cfg = &Config{UI: &UIConfig{Watch: true}}
	ui = cfg.GetUIConfig()
	assert.Equal(t, 8712, ui.Port, "zero port falls back to default")
}

// TestResolvePathRelativeTo tests path resolution.
func TestResolvePathRelativeTo(t *testing.T) {
	assert.Equal(t, "", resolvePathRelativeTo("", "/base"))
	assert.Equal(t, "/abs/path", resolvePathRelativeTo("/abs/path", "/base"))
	assert.Equal(t, filepath.Join("/base", "rel"), resolvePathRelativeTo("rel", "/base"))
}

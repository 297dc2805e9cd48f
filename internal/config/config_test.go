package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		conn      ConnectionConfig
		errSubstr string
	}{
		{
			name: "valid postgres",
			conn: ConnectionConfig{Provider: "postgres", Host: "localhost", Port: 5432, Database: "shop", Username: "app"},
		},
		{
			name: "valid duckdb file",
			conn: ConnectionConfig{Provider: "duckdb", Path: "shop.db"},
		},
		{
			name: "valid duckdb memory",
			conn: ConnectionConfig{Provider: "duckdb", Path: ":memory:"},
		},
		{
			name:      "postgres missing database",
			conn:      ConnectionConfig{Provider: "postgres", Port: 5432, Username: "app"},
			errSubstr: "database name is required",
		},
		{
			name:      "postgres missing username",
			conn:      ConnectionConfig{Provider: "postgres", Port: 5432, Database: "shop"},
			errSubstr: "username is required",
		},
		{
			name:      "postgres bad port",
			conn:      ConnectionConfig{Provider: "postgres", Port: 99999, Database: "shop", Username: "app"},
			errSubstr: "port must be between 1 and 65535",
		},
		{
			name:      "duckdb missing path",
			conn:      ConnectionConfig{Provider: "duckdb"},
			errSubstr: "database path is required",
		},
		{
			name:      "unknown provider",
			conn:      ConnectionConfig{Provider: "mysql"},
			errSubstr: `unsupported provider "mysql"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conn.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConnectionConfigValidateReportsAllErrors(t *testing.T) {
	err := ConnectionConfig{Provider: "postgres"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database name is required")
	assert.Contains(t, err.Error(), "username is required")
	assert.Contains(t, err.Error(), "port must be between")
}

func TestConnectionConfigMaskedDSN(t *testing.T) {
	conn := ConnectionConfig{
		Provider: "postgres", Host: "db.internal", Port: 5432,
		Database: "shop", Username: "app", Password: "hunter2",
	}
	masked := conn.MaskedDSN()
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "app:***@")
	assert.Contains(t, masked, "db.internal")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Connection: ConnectionConfig{Provider: "postgres", Database: "shop", Username: "app"}}
	ApplyDefaults(cfg)

	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, 5432, cfg.Connection.Port)
	assert.Equal(t, "disable", cfg.Connection.SSLMode)
	assert.Equal(t, DefaultExcludeSchemas, cfg.Analysis.ExcludeSchemas)
	assert.Equal(t, DefaultMaxProcBodySize, cfg.Analysis.MaxProcBodySize)
	assert.Equal(t, DefaultImplicitConfidenceThreshold, cfg.Analysis.ImplicitConfidenceThreshold)
	assert.Nil(t, cfg.Target)
}

func TestApplyDefaultsDuckDBLeavesNetworkFieldsAlone(t *testing.T) {
	cfg := &Config{Connection: ConnectionConfig{Provider: "duckdb", Path: ":memory:"}}
	ApplyDefaults(cfg)

	assert.Empty(t, cfg.Connection.Host)
	assert.Zero(t, cfg.Connection.Port)
}

func TestApplyDefaultsTarget(t *testing.T) {
	cfg := &Config{
		Connection: ConnectionConfig{Provider: "duckdb", Path: "a.db"},
		Target:     &ConnectionConfig{Provider: "postgres", Database: "shop", Username: "app"},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "localhost", cfg.Target.Host)
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleYAML = `
connection:
  provider: postgres
  host: db.internal
  port: 5433
  database: shop
  username: app
  password: secret
analysis:
  detect_implicit_relationships: false
  max_proc_size: 500000
output: json
`

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), sampleYAML)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Connection.Provider)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "shop", cfg.Connection.Database)
	assert.False(t, cfg.Analysis.DetectImplicitRelationships)
	assert.Equal(t, 500000, cfg.Analysis.MaxProcBodySize)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, path, FileUsed())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultProvider, cfg.Connection.Provider)
	assert.True(t, cfg.Analysis.DetectImplicitRelationships)
	assert.True(t, cfg.Analysis.AnalyzeSecurity)
	assert.True(t, cfg.Analysis.AnalyzeSizes)
	assert.Equal(t, DefaultExcludeSchemas, cfg.Analysis.ExcludeSchemas)
	assert.Empty(t, FileUsed())
}

func TestLoadDiscoversFileUpward(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, sampleYAML)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
}

func connectionFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("provider", "", "")
	fs.String("host", "", "")
	fs.Int("port", 0, "")
	fs.String("database", "", "")
	fs.String("username", "", "")
	fs.String("password", "", "")
	fs.String("path", "", "")
	fs.String("output", "", "")
	fs.Bool("verbose", false, "")
	fs.String("target-path", "", "")
	fs.String("target-provider", "", "")
	return fs
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), sampleYAML)

	fs := connectionFlags()
	require.NoError(t, fs.Parse([]string{"--host", "flag-host", "--port", "6000", "--verbose"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "flag-host", cfg.Connection.Host)
	assert.Equal(t, 6000, cfg.Connection.Port)
	assert.True(t, cfg.Verbose)
	// Untouched flags do not clobber file values.
	assert.Equal(t, "shop", cfg.Connection.Database)
	assert.Equal(t, "json", cfg.Output)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), sampleYAML)
	t.Setenv("SQLFORENSIC_CONNECTION__HOST", "env-host")
	t.Setenv("SQLFORENSIC_OUTPUT", "markdown")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Connection.Host)
	assert.Equal(t, "markdown", cfg.Output)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SQLFORENSIC_CONNECTION__HOST", "env-host")

	fs := connectionFlags()
	require.NoError(t, fs.Parse([]string{"--host", "flag-host"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "flag-host", cfg.Connection.Host)
}

func TestLoadTargetFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	fs := connectionFlags()
	require.NoError(t, fs.Parse([]string{"--target-provider", "duckdb", "--target-path", "other.db"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Provider)
	assert.Equal(t, "other.db", cfg.Target.Path)
}

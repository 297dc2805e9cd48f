// Package config loads and validates sqlforensic configuration from the
// config file, environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlforensic/internal/connector"
)

// ConnectionConfig holds one database connection.
type ConnectionConfig struct {
	// Provider selects the connector ("postgres" or "duckdb").
	Provider string `koanf:"provider"`

	// Path is the database file for file-based providers (DuckDB).
	// ":memory:" opens an in-memory database.
	Path string `koanf:"path"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// Connector converts the connection section into a connector config.
func (c ConnectionConfig) Connector() connector.Config {
	return connector.Config{
		Provider: c.Provider,
		Path:     c.Path,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.Username,
		Password: c.Password,
		SSLMode:  c.SSLMode,
	}
}

// MaskedDSN renders the connection target with the password hidden, safe
// for logs.
func (c ConnectionConfig) MaskedDSN() string {
	return c.Connector().MaskedDSN()
}

// Validate reports every problem with the connection at once.
func (c ConnectionConfig) Validate() error {
	var errs []error
	switch c.Provider {
	case "postgres":
		if c.Database == "" {
			errs = append(errs, errors.New("database name is required"))
		}
		if c.Username == "" {
			errs = append(errs, errors.New("username is required"))
		}
		if c.Port < 1 || c.Port > 65535 {
			errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
		}
	case "duckdb":
		if c.Path == "" {
			errs = append(errs, errors.New("database path is required (use :memory: for in-memory)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported provider %q (postgres or duckdb)", c.Provider))
	}
	return errors.Join(errs...)
}

// AnalysisConfig tunes analyzer behavior.
type AnalysisConfig struct {
	// IncludeSchemas limits analysis to these schemas; empty means all.
	IncludeSchemas []string `koanf:"include_schemas"`

	// ExcludeSchemas are skipped entirely. Defaults cover system catalogs.
	ExcludeSchemas []string `koanf:"exclude_schemas"`

	// MaxProcBodySize is the largest routine body parsed, in bytes.
	MaxProcBodySize int `koanf:"max_proc_size"`

	// DetectImplicitRelationships enables naming-convention FK discovery.
	DetectImplicitRelationships bool `koanf:"detect_implicit_relationships"`

	// ImplicitConfidenceThreshold drops implicit relationships scored below
	// it (0-100).
	ImplicitConfidenceThreshold int `koanf:"implicit_confidence_threshold"`

	AnalyzeSecurity bool `koanf:"analyze_security"`
	AnalyzeSizes    bool `koanf:"analyze_sizes"`
}

// Config is the full sqlforensic configuration.
type Config struct {
	Connection ConnectionConfig `koanf:"connection"`

	// Target is the second connection for schema diffs. Nil unless the
	// config file or target flags set one.
	Target *ConnectionConfig `koanf:"target"`

	Analysis AnalysisConfig `koanf:"analysis"`

	Verbose bool `koanf:"verbose"`

	// Output selects the render mode: "" (auto), text, markdown, or json.
	Output string `koanf:"output"`
}

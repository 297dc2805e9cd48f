package config

// Default configuration values.
const (
	DefaultProvider     = "postgres"
	DefaultHost         = "localhost"
	DefaultPostgresPort = 5432
	DefaultSSLMode      = "disable"

	DefaultMaxProcBodySize             = 1_000_000
	DefaultImplicitConfidenceThreshold = 50
)

// DefaultExcludeSchemas are the system catalogs no analysis should touch.
var DefaultExcludeSchemas = []string{"information_schema", "pg_catalog", "pg_toast"}

// ApplyConnectionDefaults fills unset connection fields based on provider.
func ApplyConnectionDefaults(c *ConnectionConfig) {
	if c == nil {
		return
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == "postgres" {
		if c.Host == "" {
			c.Host = DefaultHost
		}
		if c.Port == 0 {
			c.Port = DefaultPostgresPort
		}
		if c.SSLMode == "" {
			c.SSLMode = DefaultSSLMode
		}
	}
}

// ApplyDefaults fills unset fields across the whole config.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	ApplyConnectionDefaults(&cfg.Connection)
	ApplyConnectionDefaults(cfg.Target)

	a := &cfg.Analysis
	if a.ExcludeSchemas == nil {
		a.ExcludeSchemas = append([]string(nil), DefaultExcludeSchemas...)
	}
	if a.MaxProcBodySize == 0 {
		a.MaxProcBodySize = DefaultMaxProcBodySize
	}
	if a.ImplicitConfidenceThreshold == 0 {
		a.ImplicitConfidenceThreshold = DefaultImplicitConfidenceThreshold
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names probed during discovery.
const (
	ConfigFileName    = "sqlforensic.yaml"
	ConfigFileNameAlt = "sqlforensic.yml"
)

// EnvPrefix is the prefix for environment variable overrides. A double
// underscore separates nesting levels: SQLFORENSIC_CONNECTION__HOST sets
// connection.host.
const EnvPrefix = "SQLFORENSIC_"

// maxUpwardSearchLevels limits how far up the directory tree discovery walks.
const maxUpwardSearchLevels = 10

// flagKeys maps connection flag names to their nested config keys. Flags
// not listed here map by kebab-to-snake conversion.
var flagKeys = map[string]string{
	"provider": "connection.provider",
	"host":     "connection.host",
	"port":     "connection.port",
	"database": "connection.database",
	"username": "connection.username",
	"password": "connection.password",
	"path":     "connection.path",
	"sslmode":  "connection.sslmode",

	"target-provider": "target.provider",
	"target-host":     "target.host",
	"target-port":     "target.port",
	"target-database": "target.database",
	"target-username": "target.username",
	"target-password": "target.password",
	"target-path":     "target.path",
	"target-sslmode":  "target.sslmode",
}

var fileUsed string

// FileUsed returns the path of the config file the last Load read, or ""
// when none was found.
func FileUsed() string { return fileUsed }

// findConfigFile resolves the config file to use. An explicit path wins;
// otherwise discovery walks upward from the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load builds the configuration. Precedence, highest first: flags, then
// environment variables, then the config file, then defaults. A .env file
// in the working directory is read into the environment first.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"connection.provider":                    DefaultProvider,
		"analysis.detect_implicit_relationships": true,
		"analysis.analyze_security":              true,
		"analysis.analyze_sizes":                 true,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	fileUsed = findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", fileUsed, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/latchkey/latchkey/internal/xdg"
)

// Flag names registered by RegisterFlags.
const (
	FlagConfig      = "config"
	FlagEnvironment = "environment"
	FlagHost        = "host"
	FlagPort        = "port"
	FlagDatabaseURL = "database-url"
	FlagMetricsAddr = "metrics-addr"
	FlagLogFormat   = "log-format"
	FlagLogLevel    = "log-level"
)

// RegisterFlags adds the configuration flags to fs. Flag defaults are
// informational; only flags the user sets override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "path to a YAML config file")
	fs.String(FlagEnvironment, string(d.Environment), "deployment environment (development or production)")
	fs.String(FlagHost, "", "HTTP listen host (default depends on environment)")
	fs.Int(FlagPort, 0, "HTTP listen port (default 3000 in development)")
	fs.String(FlagDatabaseURL, "", "PostgreSQL connection URL")
	fs.String(FlagMetricsAddr, d.MetricsAddr, "metrics and health listen address (empty disables)")
	fs.String(FlagLogFormat, d.LogFormat, "log format (json or text)")
	fs.String(FlagLogLevel, "", "log level (debug, info, warn, error; default depends on environment)")
}

// LoadOptions are the inputs of Load.
type LoadOptions struct {
	// Flags is the parsed flag set; may be nil.
	Flags *pflag.FlagSet
	// ConfigFile overrides the --config flag.
	ConfigFile string
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load builds a Config from defaults, the YAML file, environment variables
// and explicitly set flags. Without --config, $XDG_CONFIG_HOME/latchkey/config.yaml
// is read when it exists. The result is not validated.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	path := opts.ConfigFile
	if path == "" && opts.Flags != nil {
		path, _ = opts.Flags.GetString(FlagConfig) //nolint:errcheck // absent flag means no file
	}
	if path == "" {
		path = xdg.DefaultConfigFile(getenv(opts.Environ))
	}
	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
		if err := unmarshal(k, &cfg); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	envOpts := env.Options{}
	if opts.Environ != nil {
		envOpts.Environment = opts.Environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return Config{}, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if opts.Flags != nil {
		k := koanf.New(".")
		// With a nil koanf instance posflag skips flags the user did not set.
		provider := posflag.ProviderWithFlag(opts.Flags, ".", nil, func(f *pflag.Flag) (string, any) {
			if f.Name == FlagConfig {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
		if err := unmarshal(k, &cfg); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	return cfg, nil
}

// getenv reads from environ when set, otherwise from the process.
func getenv(environ map[string]string) xdg.Getenv {
	if environ == nil {
		return os.Getenv
	}
	return func(key string) string { return environ[key] }
}

func unmarshal(k *koanf.Koanf, cfg *Config) error {
	//nolint:wrapcheck // callers add the code
	return k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"})
}

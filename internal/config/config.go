// Package config loads service configuration from flags, environment, .env
// files, and an optional config file.
//
// Sources, highest precedence first:
//  1. Command-line flags that were set explicitly
//  2. Environment variables (IMAGE_INTENSITY_ prefix, "." replaced by "_")
//  3. .env.local then .env in the working directory
//  4. Config file (--config, or image-intensity.{yaml,toml,json} in . or $HOME)
//  5. Defaults
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/image-intensity/internal/logging"
	"github.com/ironsheep/image-intensity/internal/server"
	"github.com/ironsheep/image-intensity/internal/tracing"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "IMAGE_INTENSITY"

// configName is the config file base name searched for when none is given.
const configName = "image-intensity"

// Config is the complete service configuration.
type Config struct {
	Server server.Config  `mapstructure:"server"`
	Log    logging.Config `mapstructure:"log"`
	Trace  tracing.Config `mapstructure:"trace"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

// Default returns the configuration used when no source overrides anything.
func Default() Config {
	return Config{
		Server: server.DefaultConfig(),
		Log:    logging.DefaultConfig(),
		Trace:  tracing.DefaultConfig(),
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"max-upload-bytes": "server.max_upload_bytes",
	"max-pixels":       "server.max_pixels",
	"request-timeout":  "server.request_timeout",
	"cors":             "server.cors_enabled",
	"cors-origins":     "server.cors_origins",
	"metrics":          "server.metrics_enabled",
	"docs":             "server.docs_enabled",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"log-output":       "log.output",
	"trace":            "trace.enabled",
	"trace-endpoint":   "trace.endpoint",
}

// Load builds the configuration. flags may be nil; configFile may be empty to
// search the default locations, in which case a missing file is not an error.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "failed to bind flag --%s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "json", "console", "pretty":
	default:
		return errors.Errorf("log.format %q must be json, console or auto", c.Log.Format)
	}
	if c.Trace.Enabled && c.Trace.ServiceName == "" {
		return errors.New("trace.service_name is required when tracing is enabled")
	}
	return nil
}

// setDefaults registers every key so environment variables are seen by Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.max_pixels", d.Server.MaxPixels)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_enabled", d.Server.CORSEnabled)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.metrics_enabled", d.Server.MetricsEnabled)
	v.SetDefault("server.docs_enabled", d.Server.DocsEnabled)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("trace.enabled", d.Trace.Enabled)
	v.SetDefault("trace.endpoint", d.Trace.Endpoint)
	v.SetDefault("trace.insecure", d.Trace.Insecure)
	v.SetDefault("trace.service_name", d.Trace.ServiceName)
}

// loadEnvFiles loads .env files. Variables already set are kept, so
// .env.local (loaded first) overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

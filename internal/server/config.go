package server

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Listener settings
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Request limits
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"` // Whole request body; 0 disables
	MaxPixels      int64         `mapstructure:"max_pixels"`       // Declared width*height; 0 disables
	RequestTimeout time.Duration `mapstructure:"request_timeout"`  // Processing budget per upload; 0 disables

	// HTTP timeouts
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORS settings
	CORSEnabled bool     `mapstructure:"cors_enabled"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Features
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	DocsEnabled    bool `mapstructure:"docs_enabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            3000,
		MaxUploadBytes:  20 << 20,
		MaxPixels:       100_000_000,
		RequestTimeout:  30 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSEnabled:     true,
		CORSOrigins:     []string{"*"},
		MetricsEnabled:  true,
		DocsEnabled:     true,
	}
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate rejects out-of-range ports and negative limits.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("server.port %d out of range 0-65535", c.Port)
	}
	for name, v := range map[string]int64{
		"server.max_upload_bytes": c.MaxUploadBytes,
		"server.max_pixels":       c.MaxPixels,
		"server.request_timeout":  int64(c.RequestTimeout),
		"server.read_timeout":     int64(c.ReadTimeout),
		"server.write_timeout":    int64(c.WriteTimeout),
		"server.idle_timeout":     int64(c.IdleTimeout),
		"server.shutdown_timeout": int64(c.ShutdownTimeout),
	} {
		if v < 0 {
			return errors.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

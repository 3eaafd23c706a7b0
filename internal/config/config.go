// Package config handles hashstore server configuration: defaults, then an
// optional JSON file, then command-line flags.
package config

import (
	"fmt"

	"github.com/nainya/hashstore/pkg/document"
)

// Config holds runtime settings for the hashstore server.
//
// Fields:
//   - GRPCPort / MetricsPort: listen ports of the record service and of the
//     observability HTTP server.
//   - RedisAddr / RedisPassword / RedisDB: connection to the key-value store.
//   - LogLevel / LogPretty: zerolog level and console output.
//   - Schema: layout of the documents served.
type Config struct {
	GRPCPort      int
	MetricsPort   int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
	LogPretty     bool
	Schema        document.Schema
}

// LoadDefaults populates Config with development defaults
func (c *Config) LoadDefaults() {
	c.GRPCPort = 50051
	c.MetricsPort = 9090
	c.RedisAddr = "localhost:6379"
	c.RedisDB = 0
	c.LogLevel = "info"
	c.LogPretty = false
	c.Schema = document.Schema{
		Namespace: "document",
		IDField:   "id",
	}
}

// Load builds a Config from defaults, the JSON file named by -config, and
// the remaining flags in args, in that order.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := configPath(args)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ports and the document schema
func (c *Config) Validate() error {
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port %d", c.GRPCPort)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.MetricsPort)
	}
	if c.GRPCPort == c.MetricsPort {
		return fmt.Errorf("grpc and metrics ports must differ")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address is required")
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nainya/hashstore/pkg/document"
)

// JSONConfig is the on-disk form of Config. Pointer fields distinguish a
// missing key from a zero value so the file only overrides what it sets.
type JSONConfig struct {
	GRPCPort      *int             `json:"grpc_port"`
	MetricsPort   *int             `json:"metrics_port"`
	RedisAddr     *string          `json:"redis_addr"`
	RedisPassword *string          `json:"redis_password"`
	RedisDB       *int             `json:"redis_db"`
	LogLevel      *string          `json:"log_level"`
	LogPretty     *bool            `json:"log_pretty"`
	Schema        *document.Schema `json:"schema"`
}

func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c JSONConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if c.GRPCPort != nil {
		cfg.GRPCPort = *c.GRPCPort
	}
	if c.MetricsPort != nil {
		cfg.MetricsPort = *c.MetricsPort
	}
	if c.RedisAddr != nil {
		cfg.RedisAddr = *c.RedisAddr
	}
	if c.RedisPassword != nil {
		cfg.RedisPassword = *c.RedisPassword
	}
	if c.RedisDB != nil {
		cfg.RedisDB = *c.RedisDB
	}
	if c.LogLevel != nil {
		cfg.LogLevel = *c.LogLevel
	}
	if c.LogPretty != nil {
		cfg.LogPretty = *c.LogPretty
	}
	if c.Schema != nil {
		cfg.Schema = *c.Schema
	}
	return nil
}

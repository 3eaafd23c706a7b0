package config

import (
	"flag"
	"io"
	"strings"
)

// newFlagSet binds every flag to cfg. Flag defaults are the values already
// in cfg, so unset flags keep what defaults and the JSON file provided.
//
// Supported flags:
//
//	-config string          JSON configuration file
//	-port int               gRPC port
//	-metrics-port int       observability HTTP port
//	-redis string           Redis address
//	-redis-password string  Redis password
//	-redis-db int           Redis database
//	-log-level string       debug, info, warn, error
//	-pretty                 console log output
//	-namespace string       document namespace
//	-id-field string        identifier field name
//	-fields string          comma separated attribute names
//	-indexed string         comma separated indexed attribute names
//	-ttl int                default expiration in seconds
//	-ttl-field string       attribute holding a per-document expiration in seconds
func newFlagSet(cfg *Config, path *string) *flag.FlagSet {
	fs := flag.NewFlagSet("hashstore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(path, "config", "", "JSON configuration file")
	fs.IntVar(&cfg.GRPCPort, "port", cfg.GRPCPort, "gRPC server port")
	fs.IntVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "observability HTTP port")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogPretty, "pretty", cfg.LogPretty, "pretty console logging")
	fs.StringVar(&cfg.Schema.Namespace, "namespace", cfg.Schema.Namespace, "document namespace")
	fs.StringVar(&cfg.Schema.IDField, "id-field", cfg.Schema.IDField, "identifier field name")
	fs.Func("fields", "comma separated attribute names", func(s string) error {
		cfg.Schema.Fields = splitList(s)
		return nil
	})
	fs.Func("indexed", "comma separated indexed attribute names", func(s string) error {
		cfg.Schema.Indexed = splitList(s)
		return nil
	})
	fs.Int64Var(&cfg.Schema.DefaultTTLSeconds, "ttl", cfg.Schema.DefaultTTLSeconds, "default expiration in seconds")
	fs.StringVar(&cfg.Schema.TTLField, "ttl-field", cfg.Schema.TTLField, "attribute holding a per-document expiration in seconds")
	return fs
}

// configPath extracts -config without applying any other flag
func configPath(args []string) (string, error) {
	var path string
	if err := newFlagSet(&Config{}, &path).Parse(args); err != nil {
		return "", err
	}
	return path, nil
}

func parseFlags(cfg *Config, args []string) error {
	var path string
	return newFlagSet(cfg, &path).Parse(args)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

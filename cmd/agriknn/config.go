package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/agrirecsys/agriknn/index/lsh"
)

// EnvPrefix marks the environment variables read as configuration.
const EnvPrefix = "AGRIKNN_"

// Config holds every setting of the command line tool.
// Precedence: flags > environment > config file > defaults.
type Config struct {
	Input       string `koanf:"input"`
	Output      string `koanf:"output"`
	SkipInvalid bool   `koanf:"skip_invalid"`

	K                    int     `koanf:"k" validate:"min=1"`
	Bands                int     `koanf:"bands" validate:"min=1"`
	HashFunctionsPerBand int     `koanf:"hash_functions" validate:"min=1"`
	Seed                 int64   `koanf:"seed"`
	Scale                float64 `koanf:"scale" validate:"gt=0"`
	Shards               int     `koanf:"shards" validate:"min=1"`
	Workers              int     `koanf:"workers" validate:"min=0"`

	Records int `koanf:"records" validate:"min=1"`

	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `koanf:"log_format" validate:"oneof=text json"`
	Progress    bool   `koanf:"progress"`
	MetricsAddr string `koanf:"metrics_addr" validate:"omitempty,tcp_addr"`
}

func defaultConfig() *Config {
	return &Config{
		K:                    3,
		Bands:                lsh.DefaultOptions.Bands,
		HashFunctionsPerBand: lsh.DefaultOptions.HashFunctionsPerBand,
		Seed:                 lsh.DefaultSeed,
		Scale:                lsh.DefaultScale,
		Shards:               lsh.DefaultOptions.Shards,
		Records:              1000,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

var validate = validator.New()

// registerFlags declares one flag per configuration key on fs.
// Flag names use dashes where keys use underscores.
func registerFlags(fs *flag.FlagSet) *string {
	d := defaultConfig()

	configPath := fs.String("config", "", "optional YAML configuration file")
	fs.String("input", d.Input, "record CSV file (.zst and .lz4 are decompressed)")
	fs.String("output", d.Output, "output file, stdout when empty")
	fs.Bool("skip-invalid", d.SkipInvalid, "skip malformed rows instead of failing")
	fs.Int("k", d.K, "neighbors per record")
	fs.Int("bands", d.Bands, "LSH bands")
	fs.Int("hash-functions", d.HashFunctionsPerBand, "LSH hash functions per band")
	fs.Int64("seed", d.Seed, "seed for LSH weights and generated records")
	fs.Float64("scale", d.Scale, "LSH projection scale")
	fs.Int("shards", d.Shards, "lock shards per LSH band table")
	fs.Int("workers", d.Workers, "worker goroutines, 0 means GOMAXPROCS")
	fs.Int("records", d.Records, "number of records to generate")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "text or json")
	fs.Bool("progress", d.Progress, "show progress bars")
	fs.String("metrics-addr", d.MetricsAddr, "serve Prometheus metrics on host:port, e.g. 127.0.0.1:9090")

	return configPath
}

// flagOverrides collects the flags set explicitly on the command line.
func flagOverrides(fs *flag.FlagSet) map[string]string {
	out := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		out[strings.ReplaceAll(f.Name, "-", "_")] = f.Value.String()
	})
	return out
}

func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// loadConfig layers defaults, the optional file, the environment and
// overrides, then validates the result.
func loadConfig(path string, overrides map[string]string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to apply flag %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

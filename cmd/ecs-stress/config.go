package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one stress run. It is read from an optional YAML file and
// then overridden by any flag given on the command line.
type Config struct {
	Duration       time.Duration `yaml:"duration"`
	Entities       int           `yaml:"entities"`
	Shards         int           `yaml:"shards"`
	OpsPerFrame    int           `yaml:"ops_per_frame"`
	Seed           int64         `yaml:"seed"`
	LogLevel       string        `yaml:"log_level"`
	GCPauseMetrics bool          `yaml:"gc_pause_metrics"`
}

func DefaultConfig() Config {
	return Config{
		Duration:    10 * time.Second,
		Entities:    10000,
		Shards:      1,
		OpsPerFrame: 100,
		LogLevel:    "info",
	}
}

// LoadConfig decodes YAML from r on top of the defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &c, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate rejects settings a run cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", c.Duration))
	}
	if c.Entities <= 0 {
		errs = append(errs, fmt.Errorf("entities must be positive, got %d", c.Entities))
	}
	if c.Shards <= 0 {
		errs = append(errs, fmt.Errorf("shards must be positive, got %d", c.Shards))
	}
	if c.OpsPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("ops_per_frame must be positive, got %d", c.OpsPerFrame))
	}
	return errors.Join(errs...)
}

// parseConfig parses args, loads -config if given and applies the flags that
// were set explicitly on top of it.
func parseConfig(args []string) (*Config, error) {
	defaults := DefaultConfig()

	fs := flag.NewFlagSet("ecs-stress", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file.")
	duration := fs.Duration("duration", defaults.Duration, "The total duration the test should run for.")
	entities := fs.Int("entities", defaults.Entities, "The initial number of entities per shard.")
	shards := fs.Int("shards", defaults.Shards, "The number of independent storages run concurrently.")
	opsPerFrame := fs.Int("ops", defaults.OpsPerFrame, "The number of random structural operations per frame.")
	seed := fs.Int64("seed", defaults.Seed, "Random seed; 0 picks one from the clock.")
	logLevel := fs.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error.")
	gcPauseMetrics := fs.Bool("gc-pause-metrics", defaults.GCPauseMetrics, "Enable detailed GC pause metrics in the report.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &defaults
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Duration = *duration
		case "entities":
			cfg.Entities = *entities
		case "shards":
			cfg.Shards = *shards
		case "ops":
			cfg.OpsPerFrame = *opsPerFrame
		case "seed":
			cfg.Seed = *seed
		case "log-level":
			cfg.LogLevel = *logLevel
		case "gc-pause-metrics":
			cfg.GCPauseMetrics = *gcPauseMetrics
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

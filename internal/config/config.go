package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"vehicle-scheduling-service/internal/domain"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Config holds the settings shared by the server and the CLI. Values come
// from an optional YAML file, then environment variables override them.
type Config struct {
	InstanceDir    string  `yaml:"instance_dir"`
	ResultsDir     string  `yaml:"results_dir"`
	DiagnosticsDir string  `yaml:"diagnostics_dir"`
	Port           string  `yaml:"port"`
	DatabaseURL    string  `yaml:"database_url"`
	RedisURL       string  `yaml:"redis_url"`
	Boundary       string  `yaml:"boundary_policy"`
	SolveRate      float64 `yaml:"solve_rate_per_sec"`
	SolveBurst     int     `yaml:"solve_burst"`
	Workers        int     `yaml:"workers"`
}

func Default() Config {
	return Config{
		InstanceDir: "data/instances",
		ResultsDir:  "results",
		Port:        "8080",
		Boundary:    domain.NonStrict.String(),
		SolveRate:   2,
		SolveBurst:  4,
		Workers:     4,
	}
}

// Load reads path (skipped when empty or missing) over the defaults and
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("load config: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("load config: parse %q: %w", path, err)
			}
		}
	}

	cfg.InstanceDir = Get("INSTANCE_DIR", cfg.InstanceDir)
	cfg.ResultsDir = Get("RESULTS_DIR", cfg.ResultsDir)
	cfg.DiagnosticsDir = Get("DIAGNOSTICS_DIR", cfg.DiagnosticsDir)
	cfg.Port = Get("PORT", cfg.Port)
	cfg.DatabaseURL = Get("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = Get("REDIS_URL", cfg.RedisURL)
	cfg.Boundary = Get("BOUNDARY_POLICY", cfg.Boundary)

	var err error
	if cfg.SolveRate, err = floatEnv("SOLVE_RATE_PER_SEC", cfg.SolveRate); err != nil {
		return cfg, err
	}
	if cfg.SolveBurst, err = intEnv("SOLVE_BURST", cfg.SolveBurst); err != nil {
		return cfg, err
	}
	if cfg.Workers, err = intEnv("WORKERS", cfg.Workers); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.BoundaryPolicy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.SolveRate <= 0 || c.SolveBurst < 1 {
		return fmt.Errorf("config: solve rate %v/s with burst %d must both be positive", c.SolveRate, c.SolveBurst)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

func (c Config) BoundaryPolicy() (domain.BoundaryPolicy, error) {
	return domain.ParseBoundaryPolicy(c.Boundary)
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

// Package config loads the server configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Graph          string        `yaml:"graph"`
	Addr           string        `yaml:"addr"`
	CORSOrigin     string        `yaml:"cors_origin"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second; 0 disables
	RateBurst      int           `yaml:"rate_burst"`
	Locator        string        `yaml:"locator"` // linear | rtree
	StaticDir      string        `yaml:"static_dir"`
	Log            LogConfig     `yaml:"log"`
	S3             S3Config      `yaml:"s3"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// S3Config addresses an S3-compatible store for s3:// graph locations.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Graph:          "graph.bin",
		Addr:           ":8080",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		Locator:        "linear",
		Log:            LogConfig{Level: "info", Format: "text"},
		S3:             S3Config{Secure: true},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Graph == "" {
		errs = append(errs, errors.New("graph: must be set"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("addr: must be set"))
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent: %d < 1", c.MaxConcurrent))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit: %v < 0", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, errors.New("rate_burst: must be at least 1 when rate_limit is set"))
	}
	switch c.Locator {
	case "linear", "rtree":
	default:
		errs = append(errs, fmt.Errorf("locator: unknown %q", c.Locator))
	}
	return errors.Join(errs...)
}

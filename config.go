package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the file form of Options:
//
//	max_depth: 10000
//	max_iterations: 1048576
//	failed_terms: false
//	log_level: info    # debug, info, warn, error or off
type Config struct {
	MaxDepth      int    `yaml:"max_depth"`
	MaxIterations int    `yaml:"max_iterations"`
	FailedTerms   bool   `yaml:"failed_terms"`
	LogLevel      string `yaml:"log_level"`
}

// DefaultConfig mirrors the defaults of NewSystem.
func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth, MaxIterations: DefaultMaxIterations, LogLevel: "off"}
}

// LoadConfig reads YAML from r over DefaultConfig. Unknown keys are errors.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("rewrite: config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile is LoadConfig on the named file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rewrite: config: %w", err)
	}
	return LoadConfig(bytes.NewReader(data))
}

func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("rewrite: config: max_depth must be > 0, got %d", c.MaxDepth)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("rewrite: config: max_iterations must be > 0, got %d", c.MaxIterations)
	}
	if _, _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, bool, error) {
	switch strings.ToLower(c.LogLevel) {
	case "", "off":
		return 0, false, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, false, fmt.Errorf("rewrite: config: log_level: %w", err)
	}
	return l, true, nil
}

// Options converts c to system options. When a log level is set, records
// at or above it go to w as text; w may be nil for stderr.
func (c Config) Options(w io.Writer) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := []Option{
		WithMaxDepth(c.MaxDepth),
		WithMaxIterations(c.MaxIterations),
		WithFailedTerms(c.FailedTerms),
	}
	if l, on, _ := c.level(); on {
		if w == nil {
			w = os.Stderr
		}
		opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))))
	}
	return opts, nil
}

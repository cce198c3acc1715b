// Package config loads the bridge configuration file.
//
// The file is YAML and every field is optional:
//
//	model: model.inp
//	report: model.rpt
//	output: model.out
//	mapping: SwmmGoldSimBridge.json
//	marker: DUMMY
//	save_results: true
//	verify_fingerprint: false
//	journal: ""          # SQLite journal path; empty disables journaling
//	log_level: info      # debug, info, warn or error
//
// Relative paths resolve against the directory holding the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hydrobridge/internal/discovery"
	"github.com/roach88/hydrobridge/internal/mapping"
)

// DefaultFileName is looked up next to the model when no path is given.
const DefaultFileName = "hydrobridge.yaml"

// Config holds everything a bridge session needs besides the engine.
type Config struct {
	Model             string `yaml:"model"`
	Report            string `yaml:"report"`
	Output            string `yaml:"output"`
	Mapping           string `yaml:"mapping"`
	Marker            string `yaml:"marker"`
	SaveResults       bool   `yaml:"save_results"`
	VerifyFingerprint bool   `yaml:"verify_fingerprint"`
	Journal           string `yaml:"journal"`
	LogLevel          string `yaml:"log_level"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Model:       "model.inp",
		Report:      "model.rpt",
		Output:      "model.out",
		Mapping:     mapping.DefaultFileName,
		Marker:      discovery.DefaultMarker,
		SaveResults: true,
		LogLevel:    "info",
	}
}

// ValidationError reports an invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Load reads the file at path over the defaults, resolves relative paths
// against the file's directory and validates the result. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ResolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDir loads DefaultFileName from dir, or returns the defaults resolved
// against dir when the file does not exist.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, DefaultFileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Defaults()
		cfg.ResolvePaths(dir)
		return cfg, nil
	}
	return cfg, err
}

// ResolvePaths makes every relative path absolute with respect to dir.
func (c *Config) ResolvePaths(dir string) {
	for _, p := range []*string{&c.Model, &c.Report, &c.Output, &c.Mapping, &c.Journal} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks required fields and the log level.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"model", c.Model},
		{"report", c.Report},
		{"output", c.Output},
		{"mapping", c.Mapping},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: "must not be empty"}
		}
	}
	if strings.TrimSpace(c.Marker) == "" {
		return &ValidationError{Field: "marker", Message: "must not be empty"}
	}
	if strings.ContainsAny(c.Marker, " \t;\"") {
		return &ValidationError{Field: "marker", Message: fmt.Sprintf("%q cannot appear as a single model token", c.Marker)}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return &ValidationError{Field: "log_level", Message: err.Error()}
	}
	return nil
}

// DiscoveryOptions returns the discovery settings.
func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{Marker: c.Marker}
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

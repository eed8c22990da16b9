package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"
	"github.com/tsmeta/tsmeta/internal/descriptor"
)

// FileName is the config file looked up by Discover.
const FileName = "tsmeta.config.json"

// Cycle policies for recursion.onCycle.
const (
	OnCyclePlaceholder = "placeholder"
	OnCycleError       = "error"
)

// DefaultMaxDepth bounds descriptor nesting.
const DefaultMaxDepth = 64

// Config represents the tsmeta configuration.
type Config struct {
	Marker    MarkerConfig    `json:"marker"`
	Include   []string        `json:"include,omitzero"`
	Exclude   []string        `json:"exclude,omitzero"`
	Recursion RecursionConfig `json:"recursion"`
}

// MarkerConfig identifies the marker function.
type MarkerConfig struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	// Files pins extra marker module files by path (relative to the config
	// file). A function named Name declared in one of them is a marker.
	Files []string `json:"files,omitzero"`
}

// RecursionConfig bounds descriptor synthesis.
type RecursionConfig struct {
	MaxDepth int    `json:"maxDepth"`
	OnCycle  string `json:"onCycle"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Marker: MarkerConfig{
			Module: descriptor.DefaultModule,
			Name:   descriptor.DefaultName,
		},
		Recursion: RecursionConfig{
			MaxDepth: DefaultMaxDepth,
			OnCycle:  OnCyclePlaceholder,
		},
	}
}

// MarkerID returns the configured marker identity.
func (c *Config) MarkerID() descriptor.Marker {
	return descriptor.Marker{Module: c.Marker.Module, Name: c.Marker.Name}
}

// Load reads and parses a tsmeta config file over DefaultConfig.
// Relative marker.files are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config, json.RejectUnknownMembers(true)); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, f := range config.Marker.Files {
		if !filepath.IsAbs(f) {
			config.Marker.Files[i] = filepath.Join(dir, f)
		}
	}

	return &config, nil
}

// Discover returns the path of tsmeta.config.json in dir, or "" if there is
// none.
func Discover(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("checking for %s: %w", path, err)
	}
}

// LoadOrDefault loads path when it is non-empty, else the config discovered
// in dir, else DefaultConfig. It also returns the path that was loaded, ""
// for the defaults. A relative path is resolved against dir.
func LoadOrDefault(path, dir string) (*Config, string, error) {
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if path == "" {
		found, err := Discover(dir)
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	if path == "" {
		config := DefaultConfig()
		return &config, "", nil
	}
	config, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return config, path, nil
}

// Validate checks the config for logical errors.
func (c *Config) Validate() error {
	if c.Marker.Module == "" {
		return fmt.Errorf("marker.module must not be empty")
	}
	if c.Marker.Name == "" {
		return fmt.Errorf("marker.name must not be empty")
	}
	if c.Recursion.MaxDepth <= 0 {
		return fmt.Errorf("recursion.maxDepth must be positive, got %d", c.Recursion.MaxDepth)
	}
	switch c.Recursion.OnCycle {
	case OnCyclePlaceholder, OnCycleError:
	default:
		return fmt.Errorf("recursion.onCycle must be %q or %q, got %q", OnCyclePlaceholder, OnCycleError, c.Recursion.OnCycle)
	}
	return nil
}

// SPDX-License-Identifier: MIT

// Package config loads pipeline settings from YAML and turns them into
// workspace options.
//
// A minimal file:
//
//	order: 5
//	nfft: 256
//	reduce_dim: 0.99
//	delta: 0.5        # omit for automatic tuning
//	measure: dDTF
//	window:
//	  length: 200
//	  step: 20
//	locations:
//	  - {label: Cz, x: 0, y: 0, z: 1}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/topo"
	"github.com/katalvlaran/lvconn/workspace"
	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a configuration value outside its allowed range.
var ErrInvalid = errors.New("config: invalid value")

// Defaults.
const (
	DefaultOrder      = 5
	DefaultMeasure    = "dDTF"
	DefaultWindowLen  = 200
	DefaultWindowStep = 20
	defaultFilePerm   = 0o644
	defaultDirPerm    = 0o755
)

// Config is the root configuration structure.
type Config struct {
	Order     int      `yaml:"order"`
	Delta     *float64 `yaml:"delta,omitempty"` // nil selects automatic tuning
	ReduceDim float64  `yaml:"reduce_dim"`
	NFFT      int      `yaml:"nfft"`
	// Parallelism bounds concurrent window fits; 0 keeps the workspace default.
	Parallelism int             `yaml:"parallelism"`
	Measure     string          `yaml:"measure"`
	Window      WindowConfig    `yaml:"window"`
	Locations   []topo.Location `yaml:"locations,omitempty"`
}

// WindowConfig holds the sliding-window settings.
type WindowConfig struct {
	Length int `yaml:"length"`
	Step   int `yaml:"step"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Order:     DefaultOrder,
		ReduceDim: workspace.DefaultReduceDim,
		NFFT:      workspace.DefaultNFFT,
		Measure:   DefaultMeasure,
		Window: WindowConfig{
			Length: DefaultWindowLen,
			Step:   DefaultWindowStep,
		},
	}
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// Save writes c to path, creating the directory when needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, defaultFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first out-of-range value, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.Order < 1:
		return fmt.Errorf("order %d: %w", c.Order, ErrInvalid)
	case c.Delta != nil && (*c.Delta < 0 || math.IsNaN(*c.Delta) || math.IsInf(*c.Delta, 0)):
		return fmt.Errorf("delta %v: %w", *c.Delta, ErrInvalid)
	case !(c.ReduceDim > 0) || math.IsInf(c.ReduceDim, 0):
		return fmt.Errorf("reduce_dim %v: %w", c.ReduceDim, ErrInvalid)
	case c.NFFT < 1:
		return fmt.Errorf("nfft %d: %w", c.NFFT, ErrInvalid)
	case c.Parallelism < 0:
		return fmt.Errorf("parallelism %d: %w", c.Parallelism, ErrInvalid)
	case c.Window.Length < 1 || c.Window.Step < 1:
		return fmt.Errorf("window %d/%d: %w", c.Window.Length, c.Window.Step, ErrInvalid)
	}
	if _, err := connectivity.ParseMeasure(c.Measure); err != nil {
		return fmt.Errorf("measure: %w: %w", ErrInvalid, err)
	}
	for _, l := range c.Locations {
		if _, _, err := l.Project(); err != nil {
			return fmt.Errorf("location: %w: %w", ErrInvalid, err)
		}
	}

	return nil
}

// MeasureValue returns the parsed connectivity measure.
func (c *Config) MeasureValue() (connectivity.Measure, error) {
	return connectivity.ParseMeasure(c.Measure)
}

// Options translates c into workspace options. Call Validate first: the
// option constructors panic on values Validate rejects.
func (c *Config) Options() []workspace.Option {
	opts := []workspace.Option{
		workspace.WithReduceDim(c.ReduceDim),
		workspace.WithNFFT(c.NFFT),
	}
	if c.Delta != nil {
		opts = append(opts, workspace.WithRegularization(*c.Delta))
	}
	if c.Parallelism > 0 {
		opts = append(opts, workspace.WithParallelism(c.Parallelism))
	}
	if len(c.Locations) > 0 {
		opts = append(opts, workspace.WithLocations(c.Locations))
	}

	return opts
}

// Generator configuration: defaults, YAML files and command-line flags
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	// MaxCutoff bounds every radius, matching the range offered to users.
	MaxCutoff = 30

	MinMorphSteps = 1
	MaxMorphSteps = 10

	HighPassLaplacian = "laplacian"
	HighPassResidual  = "residual"
)

// Flag names shared by the CLI and MergeFile.
const (
	FlagLow              = "low"
	FlagHigh             = "high"
	FlagHighMode         = "high-mode"
	FlagSteps            = "steps"
	FlagCascadeLowCutoff = "cascade-low"
	FlagCutoffPerPass    = "per-pass"
	FlagFit              = "fit"
	FlagDebug            = "debug"
)

// Config holds every tunable of the generator.
type Config struct {
	LowPassCutoff    int    `yaml:"low_pass_cutoff"`
	HighPassCutoff   int    `yaml:"high_pass_cutoff"`
	HighPassMode     string `yaml:"high_pass_mode"`
	MorphSteps       int    `yaml:"morph_steps"`
	CascadeLowCutoff int    `yaml:"cascade_low_cutoff"`
	CutoffPerPass    int    `yaml:"cutoff_per_pass"`
	Fit              bool   `yaml:"fit"`
	Debug            bool   `yaml:"debug"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		LowPassCutoff:    4,
		HighPassCutoff:   2,
		HighPassMode:     HighPassLaplacian,
		MorphSteps:       5,
		CascadeLowCutoff: 12,
		CutoffPerPass:    6,
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	cutoffs := []struct {
		name  string
		value int
	}{
		{"low_pass_cutoff", c.LowPassCutoff},
		{"high_pass_cutoff", c.HighPassCutoff},
		{"cascade_low_cutoff", c.CascadeLowCutoff},
		{"cutoff_per_pass", c.CutoffPerPass},
	}
	for _, co := range cutoffs {
		if co.value < 0 || co.value > MaxCutoff {
			return fmt.Errorf("%s must be between 0 and %d, got %d", co.name, MaxCutoff, co.value)
		}
	}

	if c.MorphSteps < MinMorphSteps || c.MorphSteps > MaxMorphSteps {
		return fmt.Errorf("morph_steps must be between %d and %d, got %d", MinMorphSteps, MaxMorphSteps, c.MorphSteps)
	}

	switch c.HighPassMode {
	case HighPassLaplacian, HighPassResidual:
	default:
		return fmt.Errorf("high_pass_mode must be %q or %q, got %q", HighPassLaplacian, HighPassResidual, c.HighPassMode)
	}
	return nil
}

// BindHybridFlags registers the two-image hybrid settings on fs.
func (c *Config) BindHybridFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.LowPassCutoff, FlagLow, c.LowPassCutoff, "low-pass blur radius applied to the first image")
	fs.IntVar(&c.HighPassCutoff, FlagHigh, c.HighPassCutoff, "high-pass blur radius applied to the second image")
	fs.StringVar(&c.HighPassMode, FlagHighMode, c.HighPassMode, "high-pass extraction: laplacian or residual")
}

// BindMorphFlags registers the morph cascade settings on fs.
func (c *Config) BindMorphFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.MorphSteps, FlagSteps, c.MorphSteps, "number of morph steps (frames = steps + 1)")
	fs.IntVar(&c.CascadeLowCutoff, FlagCascadeLowCutoff, c.CascadeLowCutoff, "low-pass radius of the base frame")
	fs.IntVar(&c.CutoffPerPass, FlagCutoffPerPass, c.CutoffPerPass, "band-pass radius added per frame")
}

// BindInputFlags registers settings of commands reading two images.
func (c *Config) BindInputFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.Fit, FlagFit, c.Fit, "resample the second image to the size of the first")
}

// BindGlobalFlags registers settings shared by every command.
func (c *Config) BindGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.Debug, FlagDebug, c.Debug, "enable debug mode with verbose logging")
}

// MergeFile replaces c with file, keeping the values of flags that were set
// explicitly on fs.
func (c *Config) MergeFile(file *Config, fs *pflag.FlagSet) {
	merged := *file
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case FlagLow:
			merged.LowPassCutoff = c.LowPassCutoff
		case FlagHigh:
			merged.HighPassCutoff = c.HighPassCutoff
		case FlagHighMode:
			merged.HighPassMode = c.HighPassMode
		case FlagSteps:
			merged.MorphSteps = c.MorphSteps
		case FlagCascadeLowCutoff:
			merged.CascadeLowCutoff = c.CascadeLowCutoff
		case FlagCutoffPerPass:
			merged.CutoffPerPass = c.CutoffPerPass
		case FlagFit:
			merged.Fit = c.Fit
		case FlagDebug:
			merged.Debug = c.Debug
		}
	})
	*c = merged
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.LowPassCutoff)
	assert.Equal(t, 2, cfg.HighPassCutoff)
	assert.Equal(t, HighPassLaplacian, cfg.HighPassMode)
	assert.Equal(t, 5, cfg.MorphSteps)
	assert.Equal(t, 12, cfg.CascadeLowCutoff)
	assert.Equal(t, 6, cfg.CutoffPerPass)
	assert.False(t, cfg.Fit)
	assert.False(t, cfg.Debug)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte("low_pass_cutoff: 9\nhigh_pass_mode: residual\nfit: true\n"))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.LowPassCutoff)
	assert.Equal(t, HighPassResidual, cfg.HighPassMode)
	assert.True(t, cfg.Fit)
	assert.Equal(t, 2, cfg.HighPassCutoff, "unset keys keep their defaults")
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "blur: 3\n"},
		{"wrong type", "low_pass_cutoff: soft\n"},
		{"cutoff too large", "high_pass_cutoff: 31\n"},
		{"negative cutoff", "cutoff_per_pass: -1\n"},
		{"zero steps", "morph_steps: 0\n"},
		{"too many steps", "morph_steps: 11\n"},
		{"bad mode", "high_pass_mode: sobel\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hybrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("morph_steps: 3\ncascade_low_cutoff: 20\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MorphSteps)
	assert.Equal(t, 20, cfg.CascadeLowCutoff)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFlagsOverrideFile(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindHybridFlags(fs)
	cfg.BindMorphFlags(fs)
	cfg.BindInputFlags(fs)
	cfg.BindGlobalFlags(fs)

	require.NoError(t, fs.Parse([]string{"--low", "7", "--debug"}))
	assert.Equal(t, 7, cfg.LowPassCutoff)

	file, err := Parse([]byte("low_pass_cutoff: 1\nhigh_pass_cutoff: 8\nmorph_steps: 2\n"))
	require.NoError(t, err)
	cfg.MergeFile(file, fs)

	assert.Equal(t, 7, cfg.LowPassCutoff, "explicit flag wins")
	assert.True(t, cfg.Debug, "explicit flag wins")
	assert.Equal(t, 8, cfg.HighPassCutoff, "file value beats flag default")
	assert.Equal(t, 2, cfg.MorphSteps)
}

func TestFlagDefaultsMirrorConfig(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindHybridFlags(fs)

	f := fs.Lookup(FlagHighMode)
	require.NotNil(t, f)
	assert.Equal(t, HighPassLaplacian, f.DefValue)
	assert.Equal(t, "4", fs.Lookup(FlagLow).DefValue)
}

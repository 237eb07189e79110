package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-image-generator/internal/pipeline"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		params map[string]interface{}
	}{
		{"grayscale", "grayscale", map[string]interface{}{}},
		{"stack_blur:radius=6", "stack_blur", map[string]interface{}{"radius": 6.0}},
		{" gaussian:size=7, sigma=2.5 ", "gaussian", map[string]interface{}{"size": 7.0, "sigma": 2.5}},
		{"subtract:symmetric=false,shift=-128", "subtract", map[string]interface{}{"symmetric": false, "shift": -128.0}},
		{"stack_blur:alpha=true,", "stack_blur", map[string]interface{}{"alpha": true}},
		{"brighten:intensity=1", "brighten", map[string]interface{}{"intensity": 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, params, err := parseStep(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestParseStepErrors(t *testing.T) {
	for _, in := range []string{"", ":radius=2", "gaussian:size", "gaussian:=3", "gaussian:size=big"} {
		t.Run(in, func(t *testing.T) {
			_, _, err := parseStep(in)
			assert.Error(t, err)
		})
	}
}

func TestLoadPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
a:
  - {x: 10, y: 12}
  - {x: 40.5, y: 8}
b:
  - {x: 11, y: 13}
  - {x: 39, y: 9}
`), 0o644))

	pa, pb, err := loadPoints(path)
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Point{{X: 10, Y: 12}, {X: 40.5, Y: 8}}, pa)
	assert.Equal(t, []pipeline.Point{{X: 11, Y: 13}, {X: 39, Y: 9}}, pb)

	uneven := filepath.Join(dir, "uneven.yaml")
	require.NoError(t, os.WriteFile(uneven, []byte("a: [{x: 1, y: 1}]\nb: []\n"), 0o644))
	_, _, err = loadPoints(uneven)
	assert.Error(t, err)

	_, _, err = loadPoints(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOpsCommandListsRegistry(t *testing.T) {
	root := newApp().rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ops"})

	require.NoError(t, root.Execute())

	listing := out.String()
	for _, want := range []string{"Blends:", "Blur:", "stack_blur", "radius", "overlay", "2 input(s)", "Metrics", "psnr", "higher is better"} {
		assert.Contains(t, listing, want)
	}
}

func TestConfigFileUnderExplicitFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("low_pass_cutoff: 9\nhigh_pass_cutoff: 7\n"), 0o644))

	a := newApp()
	root := a.rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	hybrid, _, err := root.Find([]string{"hybrid"})
	require.NoError(t, err)

	var low, high int
	hybrid.RunE = func(cmd *cobra.Command, _ []string) error {
		low = a.cfg.LowPassCutoff
		high = a.cfg.HighPassCutoff
		return nil
	}
	root.SetArgs([]string{"hybrid", "a.png", "b.png", "-o", "out.png", "--config", path, "--high", "3"})

	require.NoError(t, root.Execute())
	assert.Equal(t, 9, low, "file value applies")
	assert.Equal(t, 3, high, "explicit flag wins")
}

func TestInvalidConfigFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("morph_steps: 40\n"), 0o644))

	root := newApp().rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ops", "--config", path})

	assert.Error(t, root.Execute())
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Mesh.Elements)
	assert.Equal(t, 160., cfg.Eigen.Power)
	assert.Equal(t, []float64{0, 50, 100, 125}, cfg.Eigen.Geometry.Interfaces)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
mesh:
  elements: 8
  order: 2
adapt:
  mode: p
  norm: h1
  workers: 4
solver:
  backend: sparse
eigen:
  geometry:
    subdivisions: [4, 4, 2]
`)
	require.NoError(t, os.WriteFile(path, data, 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Mesh.Elements)
	assert.Equal(t, 2, cfg.Mesh.Order)
	assert.Equal(t, 10., cfg.Mesh.B)
	assert.Equal(t, "p", cfg.Adapt.Mode)
	assert.Equal(t, 4, cfg.Adapt.Workers)
	assert.Equal(t, 0.7, cfg.Adapt.Threshold)
	assert.Equal(t, "sparse", cfg.Solver.Backend)
	assert.Equal(t, []int{4, 4, 2}, cfg.Eigen.Geometry.Subdivisions)
	assert.Equal(t, []int{3, 3, 3}, cfg.Eigen.Geometry.Orders)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"interval":  "mesh: {a: 3, b: 1}",
		"mode":      "adapt: {mode: q}",
		"norm":      "adapt: {norm: max}",
		"backend":   "solver: {backend: gpu}",
		"threshold": "adapt: {threshold: 1.5}",
		"initial":   "mesh: {equations: 2}",
		"marker":    "eigen: {geometry: {markers: [0, 1, 5]}}",
		"syntax":    "mesh: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			err := Parse([]byte(doc), &cfg)
			require.Error(t, err)
			if name != "syntax" {
				assert.True(t, errors.Is(err, ErrInvalid), err.Error())
			}
		})
	}
}

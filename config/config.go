// Package config loads the run parameters of the hp1d drivers from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/notargets/hp1d/adapt"
	"github.com/notargets/hp1d/ftr"
	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/problems/neutronics"
)

var ErrInvalid = errors.New("config: invalid configuration")

// Config holds every section of a run
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Newton  NewtonConfig  `yaml:"newton"`
	Adapt   AdaptConfig   `yaml:"adapt"`
	Eigen   EigenConfig   `yaml:"eigen"`
	Solver  SolverConfig  `yaml:"solver"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig describes the uniform coarse mesh of the ODE driver
type MeshConfig struct {
	A         float64   `yaml:"a"`
	B         float64   `yaml:"b"`
	Elements  int       `yaml:"elements"`
	Order     int       `yaml:"order"`
	Equations int       `yaml:"equations"`
	Initial   []float64 `yaml:"initial"` // left Dirichlet value per equation
}

type NewtonConfig struct {
	Tol     float64 `yaml:"tol"`     // coarse mesh
	TolRef  float64 `yaml:"tol_ref"` // reference meshes
	MaxIter int     `yaml:"max_iter"`
}

type AdaptConfig struct {
	Mode      string  `yaml:"mode"` // h, p or hp
	Threshold float64 `yaml:"threshold"`
	TolFTR    float64 `yaml:"tol_ftr"`
	MaxSteps  int     `yaml:"max_steps"`
	Norm      string  `yaml:"norm"` // l2 or h1
	Workers   int     `yaml:"workers"`
}

type EigenConfig struct {
	Materials neutronics.Materials `yaml:"materials"`
	Geometry  neutronics.Geometry  `yaml:"geometry"`
	Tol       float64              `yaml:"tol"`
	MaxIter   int                  `yaml:"max_iter"`
	NewtonTol float64              `yaml:"newton_tol"`
	K0        float64              `yaml:"k0"`
	InitFlux  float64              `yaml:"init_flux"`
	Power     float64              `yaml:"power"` // target power [W]
	Nu        float64              `yaml:"nu"`
	Eps       float64              `yaml:"eps"` // energy per fission [J]
}

type SolverConfig struct {
	Backend string `yaml:"backend"` // dense or sparse
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the reference parameters: the Riccati problem on [0,10]
// and the three-slab reactor
func Default() Config {
	return Config{
		Mesh: MeshConfig{
			A:         0,
			B:         10,
			Elements:  5,
			Order:     1,
			Equations: 1,
			Initial:   []float64{1},
		},
		Newton: NewtonConfig{
			Tol:     1.e-8,
			TolRef:  1.e-8,
			MaxIter: 150,
		},
		Adapt: AdaptConfig{
			Mode:      "hp",
			Threshold: 0.7,
			TolFTR:    1.e-2,
			MaxSteps:  50,
			Norm:      "l2",
			Workers:   1,
		},
		Eigen: EigenConfig{
			Materials: neutronics.DefaultMaterials(),
			Geometry:  neutronics.DefaultGeometry(),
			Tol:       1.e-8,
			MaxIter:   1000,
			NewtonTol: 1.e-5,
			K0:        1,
			InitFlux:  1,
			Power:     320 / 2.,
			Nu:        2.43,
			Eps:       3.204e-11,
		},
		Solver:  SolverConfig{Backend: "dense"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err = Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping the fields it does not mention, and
// validates the result
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return cfg.Validate()
}

// Validate rejects inconsistent parameters
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
	}
	switch {
	case c.Mesh.B <= c.Mesh.A:
		return bad("mesh interval [%g,%g]", c.Mesh.A, c.Mesh.B)
	case c.Mesh.Elements < 1:
		return bad("%d mesh elements", c.Mesh.Elements)
	case c.Mesh.Order < 1:
		return bad("mesh order %d", c.Mesh.Order)
	case c.Mesh.Equations < 1 || len(c.Mesh.Initial) != c.Mesh.Equations:
		return bad("%d equations with %d initial values", c.Mesh.Equations, len(c.Mesh.Initial))
	case c.Newton.Tol <= 0 || c.Newton.TolRef <= 0:
		return bad("newton tolerances %g, %g", c.Newton.Tol, c.Newton.TolRef)
	case c.Newton.MaxIter < 1:
		return bad("newton max_iter %d", c.Newton.MaxIter)
	case c.Adapt.Threshold < 0 || c.Adapt.Threshold > 1:
		return bad("adapt threshold %g outside [0,1]", c.Adapt.Threshold)
	case c.Adapt.TolFTR <= 0:
		return bad("adapt tol_ftr %g", c.Adapt.TolFTR)
	case c.Eigen.Tol <= 0 || c.Eigen.NewtonTol <= 0:
		return bad("eigen tolerances %g, %g", c.Eigen.Tol, c.Eigen.NewtonTol)
	case c.Eigen.Nu <= 0 || c.Eigen.Eps <= 0:
		return bad("eigen nu %g eps %g", c.Eigen.Nu, c.Eigen.Eps)
	}
	if _, err := adapt.ParseMode(c.Adapt.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := ftr.ParseNorm(c.Adapt.Norm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := linalg.ParseKind(c.Solver.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Eigen.Materials.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Eigen.Geometry.Regions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, mk := range c.Eigen.Geometry.Markers {
		if mk < 0 || mk >= c.Eigen.Materials.NumMaterials() {
			return bad("eigen marker %d has no material", mk)
		}
	}
	return nil
}

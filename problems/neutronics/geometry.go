package neutronics

import (
	"fmt"

	"github.com/notargets/hp1d/mesh"
)

// Geometry describes consecutive material slabs and the boundary data
type Geometry struct {
	Interfaces   []float64 `yaml:"interfaces"`
	Orders       []int     `yaml:"orders"`
	Markers      []int     `yaml:"markers"`
	Subdivisions []int     `yaml:"subdivisions"`
	NeumannLeft  float64   `yaml:"neumann_left"`
	AlbedoRight  float64   `yaml:"albedo_right"`
}

// DefaultGeometry is a 50 cm inner core, a 50 cm outer core and a 25 cm
// reflector, reflective on the left and vacuum on the right
func DefaultGeometry() Geometry {
	return Geometry{
		Interfaces:   []float64{0, 50, 100, 125},
		Orders:       []int{3, 3, 3},
		Markers:      []int{0, 1, 2},
		Subdivisions: []int{2, 2, 1},
		NeumannLeft:  0,
		AlbedoRight:  0.5,
	}
}

// Regions converts the slabs into mesh regions
func (geo Geometry) Regions() ([]mesh.Region, error) {
	n := len(geo.Interfaces) - 1
	if n < 1 || len(geo.Orders) != n || len(geo.Markers) != n || len(geo.Subdivisions) != n {
		return nil, fmt.Errorf("%w: %d interfaces, %d orders, %d markers, %d subdivisions",
			mesh.ErrBadRegion, len(geo.Interfaces), len(geo.Orders), len(geo.Markers), len(geo.Subdivisions))
	}
	regions := make([]mesh.Region, n)
	for i := range regions {
		regions[i] = mesh.Region{
			X1:           geo.Interfaces[i],
			X2:           geo.Interfaces[i+1],
			P:            geo.Orders[i],
			Marker:       geo.Markers[i],
			Subdivisions: geo.Subdivisions[i],
		}
	}
	return regions, nil
}

// NewMesh builds the coarse mesh for nGroups groups with two solution slots,
// applies the boundary conditions to every group, assigns the DOFs and sets
// the initial flux to the constant init
func NewMesh(geo Geometry, nGroups int, init float64) (*mesh.Mesh, error) {
	regions, err := geo.Regions()
	if err != nil {
		return nil, err
	}
	m, err := mesh.NewMaterial(regions, nGroups, 2)
	if err != nil {
		return nil, err
	}
	for g := 0; g < nGroups; g++ {
		m.SetBCLeftNeumann(g, geo.NeumannLeft)
		m.SetBCRightRobin(g, geo.AlbedoRight, 0)
	}
	m.AssignDOFs()
	m.SetVertexDOFsConstant(init, 0)
	return m, nil
}

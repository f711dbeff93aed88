package dp

import (
	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/mesh"
)

// Boundary tags for surface forms
type Boundary uint8

const (
	BoundaryLeft Boundary = iota
	BoundaryRight
)

func (b Boundary) String() string {
	if b == BoundaryLeft {
		return "left"
	}
	return "right"
}

// AnyMarker registers a volume form for every material marker
const AnyMarker = -1

// Basis is one shape function sampled at the quadrature points of an
// element, with physical derivatives
type Basis struct {
	V    []float64
	DVDX []float64
}

// FormData is the element state passed to volume forms. U and DUDX hold the
// current coefficients of every solution slot, indexed [sln][eq][point];
// slot 0 is the Newton iterate.
type FormData struct {
	Elem *element.Element
	X    []float64
	W    []float64
	U    [][][]float64
	DUDX [][][]float64
}

// NumPoints is the number of quadrature points
func (fd *FormData) NumPoints() int { return len(fd.X) }

// SurfBasis is one shape function evaluated at a boundary point
type SurfBasis struct {
	V    float64
	DVDX float64
}

// SurfData is the boundary state passed to surface forms, with solution
// values indexed [sln][eq]
type SurfData struct {
	Elem     *element.Element
	Boundary Boundary
	X        float64
	BC       []mesh.BC // boundary condition records per equation
	U        [][]float64
	DUDX     [][]float64
}

// MatrixForm computes the Jacobian contribution of trial function u to the
// equation tested with v
type MatrixForm interface {
	Jacobian(fd *FormData, u, v Basis) float64
}

// VectorForm computes the residual contribution tested with v
type VectorForm interface {
	Residual(fd *FormData, v Basis) float64
}

type MatrixSurfForm interface {
	JacobianSurf(sd *SurfData, u, v SurfBasis) float64
}

type VectorSurfForm interface {
	ResidualSurf(sd *SurfData, v SurfBasis) float64
}

type MatrixFormFunc func(fd *FormData, u, v Basis) float64

func (f MatrixFormFunc) Jacobian(fd *FormData, u, v Basis) float64 { return f(fd, u, v) }

type VectorFormFunc func(fd *FormData, v Basis) float64

func (f VectorFormFunc) Residual(fd *FormData, v Basis) float64 { return f(fd, v) }

type MatrixSurfFormFunc func(sd *SurfData, u, v SurfBasis) float64

func (f MatrixSurfFormFunc) JacobianSurf(sd *SurfData, u, v SurfBasis) float64 { return f(sd, u, v) }

type VectorSurfFormFunc func(sd *SurfData, v SurfBasis) float64

func (f VectorSurfFormFunc) ResidualSurf(sd *SurfData, v SurfBasis) float64 { return f(sd, v) }

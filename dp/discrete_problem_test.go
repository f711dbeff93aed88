package dp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/mesh"
)

var (
	mass = MatrixFormFunc(func(fd *FormData, u, v Basis) float64 {
		var s float64
		for i := range fd.X {
			s += u.V[i] * v.V[i] * fd.W[i]
		}
		return s
	})
	load = VectorFormFunc(func(fd *FormData, v Basis) float64 {
		var s float64
		for i := range fd.X {
			s += v.V[i] * fd.W[i]
		}
		return s
	})
)

func newBackend(t *testing.T) (linalg.Matrix, linalg.Vector) {
	t.Helper()
	bk, err := linalg.NewBackend(linalg.Dense)
	require.NoError(t, err)
	return bk.Matrix, bk.Vector
}

func TestAssembleLinearMass(t *testing.T) {
	m, err := mesh.New(0, 3, 3, 1, 1, 1)
	require.NoError(t, err)
	n := m.AssignDOFs()
	require.Equal(t, 4, n)

	p := New()
	p.AddMatrixForm(0, 0, mass)
	p.AddVectorForm(0, load)
	J, F := newBackend(t)
	require.NoError(t, p.Assemble(m, J, F))

	var jsum, fsum float64
	for i := 0; i < n; i++ {
		fsum += F.At(i)
		for j := 0; j < n; j++ {
			jsum += J.At(i, j)
		}
	}
	assert.InDelta(t, 3., fsum, 1.e-13)
	assert.InDelta(t, 3., jsum, 1.e-13)
	// Interior vertex couples two elements
	assert.InDelta(t, 2./3, J.At(1, 1), 1.e-13)
	assert.InDelta(t, 1./6, J.At(1, 2), 1.e-13)
	assert.Equal(t, 0., J.At(0, 3))

	// Assembly overwrites rather than accumulates
	require.NoError(t, p.Assemble(m, J, F))
	assert.InDelta(t, 2./3, J.At(1, 1), 1.e-13)
}

func TestAssembleUnmatchedMarkerContributesZero(t *testing.T) {
	m, err := mesh.NewMaterial([]mesh.Region{
		{X1: 0, X2: 1, P: 2, Marker: 0, Subdivisions: 1},
		{X1: 1, X2: 2, P: 2, Marker: 1, Subdivisions: 1},
	}, 1, 1)
	require.NoError(t, err)
	n := m.AssignDOFs()

	p := New()
	p.AddMatrixForm(0, 0, mass, 0)
	p.AddVectorForm(0, load, 0)
	J, F := newBackend(t)
	require.NoError(t, p.Assemble(m, J, F))

	right, err := m.Active(1)
	require.NoError(t, err)
	// Right vertex and bubble of the marker-1 element see nothing
	for _, k := range []int{1, 2} {
		row := right.DOF[0][k]
		assert.Equal(t, 0., F.At(row))
		for j := 0; j < n; j++ {
			assert.Equal(t, 0., J.At(row, j))
		}
	}
	left, _ := m.Active(0)
	assert.NotEqual(t, 0., F.At(left.DOF[0][2]))
}

func TestAssembleSurfaceForms(t *testing.T) {
	m, err := mesh.New(0, 1, 2, 2, 1, 1)
	require.NoError(t, err)
	m.SetBCRightRobin(0, 0.5, 0)
	m.AssignDOFs()
	m.SetVertexDOFsConstant(2, 0)

	p := New()
	p.AddMatrixFormSurf(0, 0, MatrixSurfFormFunc(func(sd *SurfData, u, v SurfBasis) float64 {
		return sd.BC[0].Coef * u.V * v.V
	}), BoundaryRight)
	p.AddVectorFormSurf(0, VectorSurfFormFunc(func(sd *SurfData, v SurfBasis) float64 {
		return sd.BC[0].Coef * sd.U[0][0] * v.V
	}), BoundaryRight)

	J, F := newBackend(t)
	require.NoError(t, p.Assemble(m, J, F))
	last := m.Last().DOF[0][1]
	assert.InDelta(t, 0.5, J.At(last, last), 1.e-14)
	assert.InDelta(t, 1., F.At(last), 1.e-14)
	// Bubbles vanish at the boundary
	bubble := m.Last().DOF[0][2]
	assert.InDelta(t, 0., F.At(bubble), 1.e-14)
	assert.Equal(t, 0., F.At(0))
}

func TestAssembleSkipsDirichletDOF(t *testing.T) {
	m, err := mesh.New(0, 1, 2, 1, 1, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	require.Equal(t, 2, m.AssignDOFs())

	p := New()
	p.AddMatrixForm(0, 0, mass)
	p.AddVectorForm(0, load)
	J, F := newBackend(t)
	require.NoError(t, p.Assemble(m, J, F))
	assert.Equal(t, 2, F.Len())
	assert.InDelta(t, 0.5, F.At(0), 1.e-14)
	assert.InDelta(t, 0.25, F.At(1), 1.e-14)
}

func TestAssembleBadEquation(t *testing.T) {
	m, err := mesh.New(0, 1, 1, 1, 1, 1)
	require.NoError(t, err)
	m.AssignDOFs()
	p := New()
	p.AddVectorForm(1, load)
	J, F := newBackend(t)
	assert.Error(t, p.Assemble(m, J, F))
}

func TestAssembleBadSurfaceEquation(t *testing.T) {
	m, err := mesh.New(0, 1, 1, 1, 1, 1)
	require.NoError(t, err)
	m.AssignDOFs()
	surf := VectorSurfFormFunc(func(sd *SurfData, v SurfBasis) float64 { return v.V })

	p := New()
	p.AddVectorFormSurf(1, surf, BoundaryRight)
	J, F := newBackend(t)
	assert.Error(t, p.Assemble(m, J, F))

	p = New()
	p.AddMatrixFormSurf(0, 2, MatrixSurfFormFunc(func(sd *SurfData, u, v SurfBasis) float64 {
		return u.V * v.V
	}), BoundaryLeft)
	assert.Error(t, p.Assemble(m, J, F))
	// Residual-only assembly skips matrix forms
	assert.NoError(t, p.AssembleVector(m, F))
}

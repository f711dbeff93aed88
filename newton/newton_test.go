package newton

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/problems/firstorder"
)

func riccatiMesh(t *testing.T, nElem, p int) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(0, 10, nElem, p, 1, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.AssignDOFs()
	return m
}

func TestSolveRiccati(t *testing.T) {
	for _, kind := range []linalg.Kind{linalg.Dense, linalg.Sparse} {
		t.Run(kind.String(), func(t *testing.T) {
			m := riccatiMesh(t, 10, 3)
			prob := firstorder.New(firstorder.Riccati())
			res, err := Solve(m, prob, Options{
				Tol:     1.e-8,
				MaxIter: 150,
				Backend: kind,
				Logger:  zaptest.NewLogger(t),
			})
			require.NoError(t, err)
			assert.Equal(t, Converged, res.Reason)
			assert.Less(t, res.ResidualNorm, 1.e-8)
			assert.Greater(t, res.Iterations, 1)
			assert.Equal(t, m.NumDOFs(), res.NDOF)

			for _, x := range []float64{0, 0.5, 2, 7.3, 10} {
				u, _, ok := m.Evaluate(x, 0)
				require.True(t, ok)
				assert.InDelta(t, 1/(x+1), u[0], 2.e-2, "x=%g", x)
			}
		})
	}
}

func TestSolveSystem(t *testing.T) {
	m, err := mesh.New(0, math.Pi, 8, 4, 2, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 0)
	m.SetBCLeftDirichlet(1, 1)
	m.AssignDOFs()
	res, err := Solve(m, firstorder.New(firstorder.Oscillator()), Options{Tol: 1.e-10, MaxIter: 20})
	require.NoError(t, err)
	assert.Equal(t, Converged, res.Reason)
	u, _, _ := m.Evaluate(math.Pi/2, 0)
	assert.InDelta(t, 1., u[0], 1.e-4)
	assert.InDelta(t, 0., u[1], 1.e-4)
}

func TestAtLeastOneIteration(t *testing.T) {
	// y' = 0 with y(0) = 1 starting from the exact solution
	sys := firstorder.System{
		NEq:  1,
		F:    func(int, []float64, float64) float64 { return 0 },
		DFDY: func(int, int, []float64, float64) float64 { return 0 },
	}
	m := riccatiMesh(t, 3, 2)
	m.SetVertexDOFsConstant(1, 0)
	res, err := Solve(m, firstorder.New(sys), Options{Tol: 1.e-8, MaxIter: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 0., res.ResidualNorm)
}

func TestNotConverged(t *testing.T) {
	m := riccatiMesh(t, 5, 1)
	res, err := Solve(m, firstorder.New(firstorder.Riccati()), Options{Tol: 1.e-30, MaxIter: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged))
	assert.Equal(t, Exhausted, res.Reason)
	assert.Equal(t, 3, res.Iterations)

	var nerr *Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, 3, nerr.Iteration)
}

type singularProblem struct{}

func (singularProblem) Assemble(m *mesh.Mesh, J linalg.Matrix, F linalg.Vector) error {
	n := m.NumDOFs()
	J.Zero(n)
	F.Zero(n)
	for i := 0; i < n; i++ {
		F.Set(i, 1)
	}
	return nil
}

func TestLinearSolveFailureIsFatal(t *testing.T) {
	m := riccatiMesh(t, 2, 1)
	res, err := Solve(m, singularProblem{}, Options{Tol: 1.e-8, MaxIter: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinearSolve))
	assert.True(t, errors.Is(err, linalg.ErrSingular))
	assert.Equal(t, Failed, res.Reason)
	assert.Equal(t, 1, res.Iterations)
}

func TestEmptySystemConverges(t *testing.T) {
	m, err := mesh.New(0, 1, 1, 1, 1, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.SetBCRightDirichlet(0, 2)
	require.Equal(t, 0, m.AssignDOFs())
	res, err := Solve(m, firstorder.New(firstorder.Riccati()), Options{Tol: 1.e-8, MaxIter: 10})
	require.NoError(t, err)
	assert.Equal(t, Converged, res.Reason)
}

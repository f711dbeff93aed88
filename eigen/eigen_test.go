package eigen

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/notargets/hp1d/config"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/newton"
	"github.com/notargets/hp1d/problems/neutronics"
)

const (
	nu  = 2.43
	eps = 3.204e-11
)

func setup(t *testing.T) (*neutronics.Problem, *mesh.Mesh) {
	t.Helper()
	p, err := neutronics.New(neutronics.DefaultMaterials())
	require.NoError(t, err)
	m, err := neutronics.NewMesh(neutronics.DefaultGeometry(), 1, 1)
	require.NoError(t, err)
	return p, m
}

func TestSourceIterationConverges(t *testing.T) {
	p, m := setup(t)
	d := &Driver{
		Problem: p,
		Newton:  newton.Options{Tol: 1.e-5, MaxIter: 150},
		Tol:     1.e-8,
		MaxIter: config.Default().Eigen.MaxIter,
		K0:      1,
		Logger:  zaptest.NewLogger(t),
	}
	res, err := d.Run(m)
	require.NoError(t, err)
	assert.Equal(t, Converged, res.State)
	assert.Greater(t, res.K, 0.)
	assert.Less(t, res.K, 2.)
	assert.LessOrEqual(t, res.Iterations, config.Default().Eigen.MaxIter)
	assert.Equal(t, res.K, p.K)
	require.Len(t, res.History, res.Iterations)
	n := len(res.History)
	require.GreaterOrEqual(t, n, 2)
	assert.Less(t, math.Abs(res.History[n-1]-res.History[n-2])/res.K, 1.e-8)
	// The converged flux is scaled so that its yield is k
	assert.InDelta(t, res.K, FissionYield(m, p, 0), 1.e-8)
}

func TestNormalizeToPower(t *testing.T) {
	p, m := setup(t)
	d := &Driver{Problem: p, Newton: newton.Options{Tol: 1.e-5, MaxIter: 150}, Tol: 1.e-6, MaxIter: config.Default().Eigen.MaxIter}
	res, err := d.Run(m)
	require.NoError(t, err)

	before := m.SolutionToVector(0)
	c, err := NormalizeToPower(m, p, 160, nu, eps)
	require.NoError(t, err)
	assert.Greater(t, c, 0.)
	after := m.SolutionToVector(0)
	require.Len(t, after, len(before))
	for i := range before {
		assert.InDelta(t, c*before[i], after[i], 1.e-12*max(1, math.Abs(after[i])))
	}
	assert.InDelta(t, 160., eps*FissionYield(m, p, 0)/nu, 1.e-8)
	assert.Equal(t, res.K, p.K)

	// Normalizing twice is a no-op
	c2, err := NormalizeToPower(m, p, 160, nu, eps)
	require.NoError(t, err)
	assert.InDelta(t, 1., c2, 1.e-12)
}

func TestNormalizeZeroFlux(t *testing.T) {
	p, m := setup(t)
	m.MultiplyDOFs(0, 0)
	_, err := NormalizeToPower(m, p, 160, nu, eps)
	assert.True(t, errors.Is(err, ErrZeroYield))
}

func TestIterationCap(t *testing.T) {
	p, m := setup(t)
	d := &Driver{Problem: p, Newton: newton.Options{Tol: 1.e-5, MaxIter: 150}, Tol: 1.e-14, MaxIter: 3}
	res, err := d.Run(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged))
	var ee *Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 3, ee.Iteration)
	assert.Equal(t, Diverged, res.State)
	assert.Len(t, res.History, 3)
}

func TestRequiresTwoSlots(t *testing.T) {
	p, err := neutronics.New(neutronics.DefaultMaterials())
	require.NoError(t, err)
	m, err := mesh.New(0, 1, 2, 2, 1, 1)
	require.NoError(t, err)
	_, err = (&Driver{Problem: p}).Run(m)
	assert.True(t, errors.Is(err, ErrSlots))
}

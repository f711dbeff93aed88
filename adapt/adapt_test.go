package adapt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/ftr"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/newton"
	"github.com/notargets/hp1d/problems/firstorder"
)

func coarseMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(0, 10, 5, 1, 1, 1)
	require.NoError(t, err)
	m.SetBCLeftDirichlet(0, 1)
	m.AssignDOFs()
	return m
}

func TestCandidates(t *testing.T) {
	ids, emax := Candidates([]float64{0.1, 1, 0.71, 0.7, 0}, 0.7)
	assert.Equal(t, 1., emax)
	assert.Equal(t, []int{1, 2}, ids)
}

func TestAdaptModes(t *testing.T) {
	errs := []float64{0.1, 1, 0.2, 0.9, 0.05}
	t.Run("h", func(t *testing.T) {
		m := coarseMesh(t)
		rep, err := Adapt(m, ftr.Estimate{Errors: errs}, Options{Mode: ModeH, Threshold: 0.7})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, rep.Refined)
		assert.Equal(t, 2, rep.Split)
		assert.Equal(t, 7, m.NumActive())
		e, _ := m.Active(2)
		assert.Equal(t, 1, e.P)
		assert.Equal(t, 1, e.Level)
	})
	t.Run("p", func(t *testing.T) {
		m := coarseMesh(t)
		rep, err := Adapt(m, ftr.Estimate{Errors: errs}, Options{Mode: ModeP, Threshold: 0.7})
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Elevated)
		assert.Equal(t, 5, m.NumActive())
		e, _ := m.Active(3)
		assert.Equal(t, 2, e.P)
		// 5 vertices + 2 bubbles
		assert.Equal(t, 7, m.NumDOFs())
	})
	t.Run("mismatch", func(t *testing.T) {
		m := coarseMesh(t)
		_, err := Adapt(m, ftr.Estimate{Errors: errs[:3]}, Options{Mode: ModeH})
		assert.True(t, errors.Is(err, ErrMismatch))
	})
}

func TestAdaptHPUsesPairs(t *testing.T) {
	m := coarseMesh(t)
	p := firstorder.New(firstorder.Riccati())
	opts := newton.Options{Tol: 1.e-8, MaxIter: 150}
	_, err := newton.Solve(m, p, opts)
	require.NoError(t, err)

	est := ftr.Estimate{Errors: []float64{1, 0, 0, 0, 0.5}, Pairs: make([]ftr.Pair, 5)}
	// Element 0: split pair with different orders
	e0, _ := m.Active(0)
	l, r, err := e0.Split(2, 3)
	require.NoError(t, err)
	l.Coeffs[0][0][2] = 0.125
	est.Pairs[0] = ftr.Pair{Elems: []element.Element{l, r}}
	// Element 4: order elevation only
	e4, _ := m.Active(4)
	q := e4.Clone()
	require.NoError(t, q.SetOrder(3))
	q.Coeffs[0][0][3] = -0.01
	est.Pairs[4] = ftr.Pair{Elems: []element.Element{q}}

	rep, err := Adapt(m, est, Options{Mode: ModeHP, Threshold: 0.4})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, rep.Refined)
	assert.Equal(t, 1, rep.Split)
	assert.Equal(t, 1, rep.Elevated)
	require.Equal(t, 6, m.NumActive())

	a0, _ := m.Active(0)
	a1, _ := m.Active(1)
	a5, _ := m.Active(5)
	assert.Equal(t, 2, a0.P)
	assert.Equal(t, 3, a1.P)
	assert.Equal(t, 0.125, a0.Coeffs[0][0][2])
	assert.Equal(t, 3, a5.P)
	assert.Equal(t, -0.01, a5.Coeffs[0][0][3])
	assert.Equal(t, 0, a5.Level)
	// 7 vertices (one fixed) + 1 + 2 + 2 bubbles
	assert.Equal(t, 11, m.NumDOFs())
}

func TestLoopConverges(t *testing.T) {
	p := firstorder.New(firstorder.Riccati())
	opts := newton.Options{Tol: 1.e-8, MaxIter: 150}
	loop := &Loop{
		Problem: p,
		Coarse:  opts,
		Estimator: ftr.Estimator{
			Problem: p,
			Newton:  opts,
			Norm:    ftr.NormL2,
			Mode:    ModeHP.RefineMode(),
			Workers: 2,
		},
		Adapt:    Options{Mode: ModeHP, Threshold: 0.7},
		TolFTR:   1.e-2,
		MaxSteps: 50,
		Exact:    firstorder.Riccati().Exact,
		Logger:   zaptest.NewLogger(t),
	}
	m := coarseMesh(t)
	hist, err := loop.Run(context.Background(), m)
	require.NoError(t, err)
	require.NotEmpty(t, hist)
	assert.Less(t, len(hist), 50)

	last := hist[len(hist)-1]
	assert.Less(t, last.MaxError, 1.e-2)
	assert.LessOrEqual(t, last.MaxError, hist[0].MaxError)
	assert.Greater(t, last.NDOF, hist[0].NDOF)
	assert.Greater(t, last.ExactRelError, 0.)
	for i := 1; i < len(hist); i++ {
		assert.GreaterOrEqual(t, hist[i].NDOF, hist[i-1].NDOF)
		assert.LessOrEqual(t, hist[i].MaxError, hist[i-1].MaxError,
			"max FTR error rose at step %d", hist[i].Step)
	}
}

func TestLoopMaxSteps(t *testing.T) {
	p := firstorder.New(firstorder.Riccati())
	opts := newton.Options{Tol: 1.e-8, MaxIter: 150}
	loop := &Loop{
		Problem:   p,
		Coarse:    opts,
		Estimator: ftr.Estimator{Problem: p, Newton: opts, Mode: mesh.RefineHP},
		Adapt:     Options{Mode: ModeHP, Threshold: 0.7},
		TolFTR:    1.e-12,
		MaxSteps:  2,
	}
	hist, err := loop.Run(context.Background(), coarseMesh(t))
	assert.True(t, errors.Is(err, ErrMaxSteps))
	assert.Len(t, hist, 2)
}

func TestParseMode(t *testing.T) {
	md, err := ParseMode("P")
	require.NoError(t, err)
	assert.Equal(t, ModeP, md)
	assert.Equal(t, mesh.RefineP, md.RefineMode())
	_, err = ParseMode("x")
	assert.Error(t, err)
}

// Package eigen drives the source (power) iteration for the dominant
// eigenvalue of a generalized diffusion problem. Every iteration freezes the
// previous flux in solution slot 1, solves for the new flux with Newton's
// method and takes the total fission yield of the new flux as the next
// eigenvalue estimate.
package eigen

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/newton"
)

var (
	ErrNotConverged = errors.New("eigen: source iteration did not converge")
	ErrSlots        = errors.New("eigen: mesh needs at least two solution slots")
	ErrNoFission    = errors.New("eigen: no fission source")
	ErrZeroYield    = errors.New("eigen: fission yield vanished")
)

// Fission integrates the fission source of one element
type Fission interface {
	// ElementYield returns the integral of nu*Sigma_f*u over e for solution slot sln
	ElementYield(e *element.Element, sln int) float64
}

// Eigenvalued is implemented by problems whose weak forms divide the
// fission source by the current eigenvalue estimate
type Eigenvalued interface {
	SetEigenvalue(k float64)
}

// State of the source iteration
type State uint8

const (
	Iterate State = iota
	Converged
	Diverged
)

func (s State) String() string {
	switch s {
	case Iterate:
		return "iterate"
	case Converged:
		return "converged"
	case Diverged:
		return "diverged"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Result of a source iteration
type Result struct {
	K          float64
	Iterations int
	State      State
	History    []float64 // eigenvalue estimate after each iteration
}

// Error carries the iteration context of a failed source iteration
type Error struct {
	Iteration int
	K         float64
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (iteration %d, k = %g)", e.Err, e.Iteration, e.K)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	defaultMaxIter = 1000
	defaultTol     = 1.e-8
)

// Driver runs the source iteration. Fission defaults to Problem when the
// problem implements it.
type Driver struct {
	Problem newton.Assembler
	Fission Fission
	Newton  newton.Options
	Tol     float64
	MaxIter int
	K0      float64
	Logger  *zap.Logger
}

// Run iterates on m, whose slot 0 holds the initial flux and whose DOFs
// are assigned, until the relative change of k drops below Tol. On success
// slot 0 holds the converged flux, normalized so that its fission yield
// equals k.
func (d *Driver) Run(m *mesh.Mesh) (res Result, err error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if m.NSln < 2 {
		return res, fmt.Errorf("%w: got %d", ErrSlots, m.NSln)
	}
	fis := d.Fission
	if fis == nil {
		var ok bool
		if fis, ok = d.Problem.(Fission); !ok {
			return res, ErrNoFission
		}
	}
	var (
		ev, _   = d.Problem.(Eigenvalued)
		tol     = d.Tol
		maxIter = d.MaxIter
		k       = d.K0
	)
	if tol <= 0 {
		tol = defaultTol
	}
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}
	if k <= 0 {
		k = 1
	}
	opt := d.Newton
	if opt.Logger == nil {
		opt.Logger = log
	}

	res.K = k
	for it := 1; it <= maxIter; it++ {
		res.Iterations = it
		m.CopyDOFs(0, 1)
		if ev != nil {
			ev.SetEigenvalue(k)
		}
		nres, nerr := newton.Solve(m, d.Problem, opt)
		if nerr != nil {
			res.State = Diverged
			return res, &Error{Iteration: it, K: k, Err: nerr}
		}

		kOld := k
		k = FissionYield(m, fis, 0)
		if k == 0 || math.IsNaN(k) || math.IsInf(k, 0) {
			res.State = Diverged
			return res, &Error{Iteration: it, K: k, Err: ErrZeroYield}
		}
		res.K = k
		res.History = append(res.History, k)
		delta := math.Abs(k-kOld) / k
		log.Info("source iteration",
			zap.Int("iter", it),
			zap.Float64("k_eff", k),
			zap.Float64("rel_change", delta),
			zap.Int("newton_iters", nres.Iterations))

		if delta < tol {
			res.State = Converged
			if ev != nil {
				ev.SetEigenvalue(k)
			}
			return
		}
	}
	res.State = Diverged
	return res, &Error{Iteration: res.Iterations, K: k, Err: ErrNotConverged}
}

// FissionYield integrates the fission source of slot sln over the mesh
func FissionYield(m *mesh.Mesh, f Fission, sln int) (y float64) {
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			return
		}
		y += f.ElementYield(e, sln)
	}
}

// NormalizeToPower scales the flux in slot 0 so that the power it
// generates, eps*yield/nu, equals power. It returns the scale factor.
func NormalizeToPower(m *mesh.Mesh, f Fission, power, nu, eps float64) (c float64, err error) {
	p := eps * FissionYield(m, f, 0) / nu
	if p == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("%w: generated power %g", ErrZeroYield, p)
	}
	c = power / p
	m.MultiplyDOFs(c, 0)
	return
}

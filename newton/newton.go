// Package newton drives assemble, linear solve and update cycles on a mesh
// until the residual of the discrete problem falls below a tolerance.
package newton

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/mesh"
)

var (
	ErrNotConverged = errors.New("newton: method did not converge")
	ErrLinearSolve  = errors.New("newton: linear solve failed")
	ErrAssembly     = errors.New("newton: assembly failed")
)

// Assembler builds the Jacobian and residual of the current solution
type Assembler interface {
	Assemble(m *mesh.Mesh, J linalg.Matrix, F linalg.Vector) error
}

// Reason tells why the iteration stopped
type Reason uint8

const (
	Converged Reason = iota
	Exhausted        // iteration cap reached
	Failed           // assembly or linear solve failed
)

func (r Reason) String() string {
	switch r {
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

type Options struct {
	Tol     float64
	MaxIter int
	Backend linalg.Kind
	Logger  *zap.Logger
}

// Result describes the final state of a solve
type Result struct {
	Iterations   int
	ResidualNorm float64
	NDOF         int
	Reason       Reason
}

// Error carries the iteration context of a failed solve
type Error struct {
	Iteration    int
	ResidualNorm float64
	Err          error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (iteration %d, residual %g)", e.Err, e.Iteration, e.ResidualNorm)
}

func (e *Error) Unwrap() error { return e.Err }

// Solve runs Newton's method on m starting from its slot-0 coefficients.
// Every iteration assembles J(y) and F(y), stops once ||F|| < Tol after at
// least one update, and otherwise solves J dy = -F and pushes y + dy back
// into the mesh. A failed linear solve aborts immediately. On success the
// mesh holds the converged solution.
func Solve(m *mesh.Mesh, p Assembler, opt Options) (res Result, err error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	res.NDOF = m.NumDOFs()
	if res.NDOF == 0 {
		res.Reason = Converged
		return
	}
	if opt.MaxIter < 2 {
		opt.MaxIter = 2
	}

	bk, err := linalg.NewBackend(opt.Backend)
	if err != nil {
		res.Reason = Failed
		return
	}
	defer bk.Release()

	y := m.SolutionToVector(0)
	for it := 1; it <= opt.MaxIter; it++ {
		res.Iterations = it
		if err = p.Assemble(m, bk.Matrix, bk.Vector); err != nil {
			res.Reason = Failed
			return res, &Error{Iteration: it, ResidualNorm: res.ResidualNorm,
				Err: fmt.Errorf("%w: %w", ErrAssembly, err)}
		}
		F := bk.Vector.RawVector()
		res.ResidualNorm = floats.Norm(F, 2)
		log.Debug("newton iteration",
			zap.Int("iter", it),
			zap.Int("ndof", res.NDOF),
			zap.Float64("residual", res.ResidualNorm))

		// The first residual on a freshly refined mesh can be spuriously small
		if res.ResidualNorm < opt.Tol && it > 1 {
			res.Reason = Converged
			return
		}
		if it == opt.MaxIter {
			break
		}

		floats.Scale(-1, F)
		if err = bk.Solver.Solve(); err != nil {
			res.Reason = Failed
			return res, &Error{Iteration: it, ResidualNorm: res.ResidualNorm,
				Err: fmt.Errorf("%w: %w", ErrLinearSolve, err)}
		}
		floats.Add(y, bk.Solver.Solution())
		m.VectorToSolution(y, 0)
	}
	res.Reason = Exhausted
	return res, &Error{Iteration: res.Iterations, ResidualNorm: res.ResidualNorm, Err: ErrNotConverged}
}

package adapt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/notargets/hp1d/ftr"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/newton"
)

// Step records one pass of the adaptivity loop
type Step struct {
	Step             int
	NDOF             int
	NewtonIterations int
	MaxError         float64
	ExactRelError    float64 // zero when no exact solution is known
}

// Loop is the outer hp-adaptivity loop: coarse Newton solve, fast trial
// refinement of every element, stop test, adaptation
type Loop struct {
	Problem   newton.Assembler
	Coarse    newton.Options
	Estimator ftr.Estimator
	Adapt     Options
	TolFTR    float64
	MaxSteps  int
	Exact     ftr.ExactFunc
	Logger    *zap.Logger
}

// Run adapts m until the largest FTR error falls below TolFTR. The mesh is
// left holding the last coarse solution. The returned history is complete
// even when an error is returned.
func (l *Loop) Run(ctx context.Context, m *mesh.Mesh) (hist []Step, err error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var exactNorm float64
	if l.Exact != nil {
		exactNorm = ftr.ExactNorm(l.Exact, m.NEq, m.A, m.B, 500, 20, l.Estimator.Norm)
	}
	m.AssignDOFs()
	for step := 1; l.MaxSteps <= 0 || step <= l.MaxSteps; step++ {
		st := Step{Step: step, NDOF: m.NumDOFs()}
		log.Info("adaptivity step", zap.Int("step", step), zap.Int("ndof", st.NDOF))

		nres, err := newton.Solve(m, l.Problem, l.Coarse)
		st.NewtonIterations = nres.Iterations
		if err != nil {
			return hist, fmt.Errorf("adapt: coarse solve at step %d: %w", step, err)
		}

		est, err := l.Estimator.Estimate(ctx, m)
		if err != nil {
			return hist, fmt.Errorf("adapt: estimate at step %d: %w", step, err)
		}
		st.MaxError = est.Max()
		if l.Exact != nil && exactNorm > 0 {
			st.ExactRelError = ftr.ExactError(m, l.Exact, l.Estimator.Norm, 0) / exactNorm
		}
		hist = append(hist, st)
		log.Info("step done",
			zap.Int("step", step),
			zap.Float64("max_ftr_error", st.MaxError),
			zap.Float64("exact_rel_error", st.ExactRelError))

		if st.MaxError < l.TolFTR {
			return hist, nil
		}
		if _, err = Adapt(m, est, l.Adapt); err != nil {
			return hist, fmt.Errorf("adapt: step %d: %w", step, err)
		}
	}
	return hist, fmt.Errorf("%w (%d)", ErrMaxSteps, l.MaxSteps)
}

// Package ftr implements fast trial refinement: every active element of a
// converged coarse mesh is refined alone on a replica, the replica is solved
// again and the difference between the two solutions estimates the error
// attributable to that element.
package ftr

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/newton"
)

// Pair holds the reference element(s) that replaced one coarse element:
// one when only the order was raised, two when it was split
type Pair struct {
	Elems []element.Element
}

// Split reports whether the reference refinement bisected the element
func (p Pair) Split() bool {
	return len(p.Elems) == 2 && !p.Elems[0].SameGeometry(&p.Elems[1])
}

// Estimate holds the per-element results of one adaptivity step
type Estimate struct {
	Errors []float64
	Pairs  []Pair
}

// Max returns the largest element error
func (est Estimate) Max() (emax float64) {
	for _, e := range est.Errors {
		emax = max(emax, e)
	}
	return
}

// Estimator runs the per-element reference solves
type Estimator struct {
	Problem newton.Assembler
	Newton  newton.Options
	Norm    Norm
	Mode    mesh.RefineMode
	Workers int
	Logger  *zap.Logger
}

func (est *Estimator) logger() *zap.Logger {
	if est.Logger == nil {
		return zap.NewNop()
	}
	return est.Logger
}

// EstimateElement replicates m, refines active element i on the replica,
// solves there and returns the error estimate and the reference pair. m is
// only read.
func (est *Estimator) EstimateElement(m *mesh.Mesh, i int) (errEst float64, pair Pair, err error) {
	ref := m.Replicate()
	r, err := ref.ReferenceRefinement(i, est.Mode)
	if err != nil {
		return
	}
	ndof := ref.AssignDOFs()
	est.logger().Debug("fine mesh created", zap.Int("elem", i), zap.Int("ndof", ndof))

	opt := est.Newton
	opt.Logger = est.logger().With(zap.Int("elem", i))
	if _, err = newton.Solve(ref, est.Problem, opt); err != nil {
		return 0, pair, fmt.Errorf("ftr: element %d: %w", i, err)
	}
	if errEst, err = ErrorNorm(m, ref, r, est.Norm, 0); err != nil {
		return
	}
	pair.Elems = make([]element.Element, r.Count)
	for k := 0; k < r.Count; k++ {
		e, aerr := ref.Active(r.First + k)
		if aerr != nil {
			return 0, pair, aerr
		}
		pair.Elems[k] = e.Clone()
	}
	return
}

// Estimate runs EstimateElement for every active element of m. The elements
// are split into contiguous partitions processed concurrently when Workers
// is greater than one; each partition writes only its own index range.
func (est *Estimator) Estimate(ctx context.Context, m *mesh.Mesh) (res Estimate, err error) {
	var (
		n      = m.NumActive()
		layout = NewPartitionLayout(n, est.Workers)
	)
	res.Errors = make([]float64, n)
	res.Pairs = make([]Pair, n)

	g, gctx := errgroup.WithContext(ctx)
	for _, part := range layout.Partitions {
		g.Go(func() error {
			for i := part.Start; i < part.End(); i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				e, pair, err := est.EstimateElement(m, i)
				if err != nil {
					return err
				}
				res.Errors[i], res.Pairs[i] = e, pair
				est.logger().Debug("element error estimate",
					zap.Int("elem", i),
					zap.Int("partition", part.ID),
					zap.Float64("error", e))
			}
			return nil
		})
	}
	err = g.Wait()
	return
}

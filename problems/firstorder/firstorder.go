// Package firstorder provides the weak forms of the general first-order
// system y' = f(y, x) with the initial condition imposed as a Dirichlet
// condition at the left end.
package firstorder

import (
	"math"

	"github.com/notargets/hp1d/dp"
)

// System is the right-hand side f and its Jacobian df/dy
type System struct {
	NEq  int
	F    func(eq int, y []float64, x float64) float64
	DFDY func(eq, j int, y []float64, x float64) float64
	// Exact is optional and used for verification only
	Exact func(x float64, u, dudx []float64)
}

// Problem is the discrete problem of a System
type Problem struct {
	*dp.DiscreteProblem
	System System
}

// New registers the residual (y_i' - f_i) v and its Jacobian for every
// equation and material
func New(sys System) *Problem {
	p := &Problem{DiscreteProblem: dp.New(), System: sys}
	for i := 0; i < sys.NEq; i++ {
		p.AddVectorForm(i, p.residual(i))
		for j := 0; j < sys.NEq; j++ {
			p.AddMatrixForm(i, j, p.jacobian(i, j))
		}
	}
	return p
}

// pointState gathers the solution vector at quadrature point pt
func pointState(fd *dp.FormData, pt int, y []float64) []float64 {
	for c := range y {
		y[c] = fd.U[0][c][pt]
	}
	return y
}

func (p *Problem) residual(i int) dp.VectorForm {
	return dp.VectorFormFunc(func(fd *dp.FormData, v dp.Basis) float64 {
		var (
			sum float64
			y   = make([]float64, p.System.NEq)
		)
		for pt := range fd.X {
			y = pointState(fd, pt, y)
			sum += (fd.DUDX[0][i][pt] - p.System.F(i, y, fd.X[pt])) * v.V[pt] * fd.W[pt]
		}
		return sum
	})
}

func (p *Problem) jacobian(i, j int) dp.MatrixForm {
	return dp.MatrixFormFunc(func(fd *dp.FormData, u, v dp.Basis) float64 {
		var (
			sum float64
			y   = make([]float64, p.System.NEq)
		)
		for pt := range fd.X {
			y = pointState(fd, pt, y)
			val := -p.System.DFDY(i, j, y, fd.X[pt]) * u.V[pt]
			if i == j {
				val += u.DVDX[pt]
			}
			sum += val * v.V[pt] * fd.W[pt]
		}
		return sum
	})
}

// Riccati is y' = -y^2; with y(0) = 1 the solution is 1/(x+1)
func Riccati() System {
	return System{
		NEq: 1,
		F: func(_ int, y []float64, _ float64) float64 {
			return -y[0] * y[0]
		},
		DFDY: func(_, _ int, y []float64, _ float64) float64 {
			return -2 * y[0]
		},
		Exact: func(x float64, u, dudx []float64) {
			u[0] = 1 / (x + 1)
			dudx[0] = -1 / ((x + 1) * (x + 1))
		},
	}
}

// Oscillator is the linear system y0' = y1, y1' = -y0; with y(0) = (0, 1)
// the solution is (sin x, cos x)
func Oscillator() System {
	return System{
		NEq: 2,
		F: func(eq int, y []float64, _ float64) float64 {
			if eq == 0 {
				return y[1]
			}
			return -y[0]
		},
		DFDY: func(eq, j int, _ []float64, _ float64) float64 {
			switch {
			case eq == 0 && j == 1:
				return 1
			case eq == 1 && j == 0:
				return -1
			}
			return 0
		},
		Exact: func(x float64, u, dudx []float64) {
			u[0], u[1] = math.Sin(x), math.Cos(x)
			dudx[0], dudx[1] = math.Cos(x), -math.Sin(x)
		},
	}
}

package ftr

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/quadrature"
)

// Norm selects the norm used to measure solution differences
type Norm uint8

const (
	NormL2 Norm = iota
	NormH1
)

func (n Norm) String() string {
	if n == NormH1 {
		return "h1"
	}
	return "l2"
}

// ParseNorm converts a configuration string into a Norm
func ParseNorm(s string) (Norm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "l2":
		return NormL2, nil
	case "h1":
		return NormH1, nil
	}
	return 0, fmt.Errorf("ftr: unknown norm %q", s)
}

// ExactFunc fills the exact solution values and derivatives at x
type ExactFunc func(x float64, u, dudx []float64)

// diffSquared integrates the squared difference between the solution on
// fine and on coarse over the interval of fine, which must lie inside coarse
func diffSquared(coarse, fine *element.Element, norm Norm, sln int) float64 {
	var (
		rule   = quadrature.ForOrder(2 * max(coarse.P, fine.P))
		x, w   = quadrature.Physical(rule, fine.X1, fine.X2)
		uf, df = fine.SolutionAt(sln, x)
		uc, dc = coarse.SolutionAt(sln, x)
		sum    float64
	)
	for c := 0; c < fine.NEq; c++ {
		for i := range x {
			d := uf[c][i] - uc[c][i]
			sum += d * d * w[i]
			if norm == NormH1 {
				dd := df[c][i] - dc[c][i]
				sum += dd * dd * w[i]
			}
		}
	}
	return sum
}

// ErrorNorm measures the difference between the solution of coarse
// element ref.Coarse and the solution of its descendants on a mesh obtained
// from coarse by one reference refinement. Elements outside the refined one
// are not measured.
func ErrorNorm(coarse, fine *mesh.Mesh, ref mesh.Refinement, norm Norm, sln int) (float64, error) {
	ce, err := coarse.Active(ref.Coarse)
	if err != nil {
		return 0, err
	}
	var total float64
	for k := ref.First; k < ref.First+ref.Count; k++ {
		fe, err := fine.Active(k)
		if err != nil {
			return 0, err
		}
		total += diffSquared(ce, fe, norm, sln)
	}
	return math.Sqrt(total), nil
}

// ExactError is the norm of the difference between the solution on m and
// the exact solution
func ExactError(m *mesh.Mesh, exact ExactFunc, norm Norm, sln int) float64 {
	var (
		total float64
		u     = make([]float64, m.NEq)
		du    = make([]float64, m.NEq)
	)
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		rule := quadrature.ForOrder(2*e.P + 8)
		x, w := quadrature.Physical(rule, e.X1, e.X2)
		val, der := e.SolutionAt(sln, x)
		for i := range x {
			exact(x[i], u, du)
			for eq := 0; eq < m.NEq; eq++ {
				d := val[eq][i] - u[eq]
				total += d * d * w[i]
				if norm == NormH1 {
					dd := der[eq][i] - du[eq]
					total += dd * dd * w[i]
				}
			}
		}
	}
	return math.Sqrt(total)
}

// ExactNorm computes the norm of the exact solution on [a,b] with a fixed
// subdivision and a high-order rule
func ExactNorm(exact ExactFunc, nEq int, a, b float64, subdivision, order int, norm Norm) float64 {
	var (
		total float64
		u     = make([]float64, nEq)
		du    = make([]float64, nEq)
		h     = (b - a) / float64(subdivision)
		rule  = quadrature.ForOrder(order)
	)
	for k := 0; k < subdivision; k++ {
		x, w := quadrature.Physical(rule, a+float64(k)*h, a+float64(k+1)*h)
		for i := range x {
			exact(x[i], u, du)
			for eq := 0; eq < nEq; eq++ {
				total += u[eq] * u[eq] * w[i]
				if norm == NormH1 {
					total += du[eq] * du[eq] * w[i]
				}
			}
		}
	}
	return math.Sqrt(total)
}

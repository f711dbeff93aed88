package element

import (
	"math"
	"sync"

	"github.com/notargets/gocfd/DG1D"
	"github.com/notargets/gocfd/utils"

	"github.com/notargets/hp1d/quadrature"
)

// MaxP is the highest polynomial degree an element may carry
const MaxP = 30

// Lobatto hierarchic shape functions on the reference interval [-1,1]:
//
//	l0 = (1-r)/2,  l1 = (1+r)/2
//	lk = (P_k - P_{k-2}) / sqrt(2(2k-1)),  k >= 2
//
// where P_k is the Legendre polynomial. The derivative of lk (k >= 2) is the
// normalized Legendre polynomial of degree k-1, so the bubble derivatives are
// orthonormal in L2(-1,1).

// legendre returns the L2-normalized Legendre polynomial of degree n at r
func legendre(r []float64, n int) []float64 {
	rr := make([]float64, len(r))
	copy(rr, r)
	return DG1D.JacobiP(utils.NewVector(len(rr), rr), 0, 0, n)
}

// Lobatto evaluates shape function k and its reference derivative at r
func Lobatto(r []float64, k int) (val, der []float64) {
	n := len(r)
	val = make([]float64, n)
	der = make([]float64, n)
	switch k {
	case 0:
		for i := range r {
			val[i] = (1 - r[i]) / 2
			der[i] = -0.5
		}
	case 1:
		for i := range r {
			val[i] = (1 + r[i]) / 2
			der[i] = 0.5
		}
	default:
		var (
			pk  = legendre(r, k)
			pk2 = legendre(r, k-2)
			pk1 = legendre(r, k-1)
			sk  = math.Sqrt((2*float64(k) + 1) / 2)
			sk2 = math.Sqrt((2*float64(k) - 3) / 2)
			fac = math.Sqrt(2 * (2*float64(k) - 1))
		)
		for i := range r {
			val[i] = (pk[i]/sk - pk2[i]/sk2) / fac
			der[i] = pk1[i]
		}
	}
	return
}

// LobattoAt evaluates shape functions 0..p at a single reference point
func LobattoAt(r float64, p int) (val, der []float64) {
	val = make([]float64, p+1)
	der = make([]float64, p+1)
	pt := []float64{r}
	for k := 0; k <= p; k++ {
		v, d := Lobatto(pt, k)
		val[k], der[k] = v[0], d[0]
	}
	return
}

// Table holds shape function values and reference derivatives at the points
// of a quadrature rule, indexed [k][point].
type Table struct {
	Rule quadrature.Rule
	Val  [][]float64
	Der  [][]float64
}

type tableKey struct{ p, npts int }

var (
	tableMu sync.RWMutex
	tables  = map[tableKey]*Table{}
)

// TableFor returns the shape function table for degree p on the n-point
// Gauss-Legendre rule. Tables are shared and must not be modified.
func TableFor(p, npts int) *Table {
	key := tableKey{p, npts}
	tableMu.RLock()
	tb, ok := tables[key]
	tableMu.RUnlock()
	if ok {
		return tb
	}
	rule := quadrature.GaussLegendre(npts)
	tb = &Table{
		Rule: rule,
		Val:  make([][]float64, p+1),
		Der:  make([][]float64, p+1),
	}
	for k := 0; k <= p; k++ {
		tb.Val[k], tb.Der[k] = Lobatto(rule.Points, k)
	}
	tableMu.Lock()
	tables[key] = tb
	tableMu.Unlock()
	return tb
}

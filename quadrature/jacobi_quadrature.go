package quadrature

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Rule is a quadrature rule on the reference interval [-1,1]
type Rule struct {
	Points  []float64
	Weights []float64
}

// NumPoints returns the number of points in the rule
func (r Rule) NumPoints() int { return len(r.Points) }

var (
	cacheMu sync.RWMutex
	cache   = map[int]Rule{}
)

// GaussLegendre returns the n-point Gauss-Legendre rule, exact for polynomials
// up to degree 2n-1. Rules are computed once and shared; callers must not
// modify the returned slices.
func GaussLegendre(n int) Rule {
	if n < 1 {
		n = 1
	}
	cacheMu.RLock()
	r, ok := cache[n]
	cacheMu.RUnlock()
	if ok {
		return r
	}
	x, w := JacobiGQ(0, 0, n-1)
	r = Rule{Points: x, Weights: w}
	cacheMu.Lock()
	cache[n] = r
	cacheMu.Unlock()
	return r
}

// PointsForOrder returns the number of Gauss points that integrates a
// polynomial of the given degree exactly
func PointsForOrder(order int) int {
	if order < 1 {
		return 1
	}
	return order/2 + 1
}

// ForOrder is GaussLegendre(PointsForOrder(order))
func ForOrder(order int) Rule {
	return GaussLegendre(PointsForOrder(order))
}

// Physical maps a reference rule onto [x1,x2]. The returned weights include
// the Jacobian of the affine map.
func Physical(r Rule, x1, x2 float64) (x, w []float64) {
	var (
		n   = len(r.Points)
		jac = (x2 - x1) / 2
		mid = (x1 + x2) / 2
	)
	x = make([]float64, n)
	w = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = mid + jac*r.Points[i]
		w[i] = jac * r.Weights[i]
	}
	return
}

// JacobiGQ computes the N+1 Gauss quadrature points and weights for the
// Jacobi weight (1-x)^alpha (1+x)^beta. The points are the eigenvalues of the
// symmetric tridiagonal Jacobi matrix (Golub-Welsch).
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{Gamma0(alpha, beta)}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: d0[i] = -(β²-α²)/((2i+α+β)*(2i+α+β+2))
	d0 = make([]float64, N+1)
	fac = (beta*beta - alpha*alpha)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// 0/0 for Legendre
	if alpha+beta < 10*1.e-16 {
		d0[0] = 0.
	}

	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1[i] = 2.0 / (val + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(val+1)/(val+3),
		)
	}

	JJ := NewSymTriDiagonal(d0, d1)

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic(fmt.Sprintf("quadrature: eigen decomposition failed for N=%d", N))
	}
	X = eig.Values(nil)

	VVr = mat.NewDense(len(X), len(X), nil)
	eig.VectorsTo(VVr)
	W = make([]float64, len(X))
	g0 := Gamma0(alpha, beta)
	for i := range W {
		v := VVr.At(0, i)
		W[i] = v * v * g0
	}
	return
}

// Gamma0 is the integral of the Jacobi weight over [-1,1]
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func NewSymTriDiagonal(d0, d1 []float64) (Tri *mat.SymDense) {
	n := len(d0)
	Tri = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		Tri.SetSym(i, i, d0[i])
		if i < n-1 {
			Tri.SetSym(i, i+1, d1[i])
		}
	}
	return
}

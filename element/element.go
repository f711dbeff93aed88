package element

import (
	"fmt"
	"strings"

	"github.com/notargets/hp1d/quadrature"
)

// Element is one interval of a 1-D mesh carrying a hierarchic polynomial
// approximation of degree P for each of NEq equations. Coefficient index 0 is
// the left vertex function, 1 the right vertex function and k >= 2 the
// bubbles. Elements live in a mesh arena; Parent and Sons are arena indices
// (-1 when absent).
type Element struct {
	ID     int // position among active elements at the last DOF assignment
	Active bool
	Level  int
	X1, X2 float64
	P      int
	NEq    int
	NSln   int
	Marker int

	DOF    [][]int       // [eq][P+1], -1 for a DOF fixed by a Dirichlet condition
	Coeffs [][][]float64 // [sln][eq][P+1]

	Parent int
	Sons   [2]int
}

// New returns an active element with zero coefficients and unassigned DOFs
func New(x1, x2 float64, p, nEq, nSln, marker int) Element {
	e := Element{
		ID:     -1,
		Active: true,
		X1:     x1,
		X2:     x2,
		P:      p,
		NEq:    nEq,
		NSln:   nSln,
		Marker: marker,
		Parent: -1,
		Sons:   [2]int{-1, -1},
	}
	e.alloc()
	return e
}

func (e *Element) alloc() {
	e.DOF = make([][]int, e.NEq)
	for c := range e.DOF {
		e.DOF[c] = make([]int, e.P+1)
		for k := range e.DOF[c] {
			e.DOF[c][k] = -1
		}
	}
	e.Coeffs = make([][][]float64, e.NSln)
	for s := range e.Coeffs {
		e.Coeffs[s] = make([][]float64, e.NEq)
		for c := range e.Coeffs[s] {
			e.Coeffs[s][c] = make([]float64, e.P+1)
		}
	}
}

// Clone returns a deep copy of e
func (e *Element) Clone() Element {
	cp := *e
	cp.DOF = make([][]int, len(e.DOF))
	for c := range e.DOF {
		cp.DOF[c] = append([]int(nil), e.DOF[c]...)
	}
	cp.Coeffs = make([][][]float64, len(e.Coeffs))
	for s := range e.Coeffs {
		cp.Coeffs[s] = make([][]float64, len(e.Coeffs[s]))
		for c := range e.Coeffs[s] {
			cp.Coeffs[s][c] = append([]float64(nil), e.Coeffs[s][c]...)
		}
	}
	return cp
}

// Jacobian of the affine map from [-1,1] to [X1,X2]
func (e *Element) Jacobian() float64 { return (e.X2 - e.X1) / 2 }

// ToRef maps a physical coordinate to the reference interval
func (e *Element) ToRef(x float64) float64 {
	return (2*x - e.X1 - e.X2) / (e.X2 - e.X1)
}

// Contains reports whether x lies in the closed interval [X1,X2]
func (e *Element) Contains(x float64) bool { return x >= e.X1 && x <= e.X2 }

// SameGeometry reports whether e and o cover the same interval
func (e *Element) SameGeometry(o *Element) bool {
	return e.X1 == o.X1 && e.X2 == o.X2
}

// SolutionOnTable evaluates solution slot sln on the points of a shape
// table. Derivatives are physical. Results are indexed [eq][point].
func (e *Element) SolutionOnTable(sln int, tb *Table) (val, der [][]float64) {
	var (
		npts = tb.Rule.NumPoints()
		jinv = 1 / e.Jacobian()
	)
	val = make([][]float64, e.NEq)
	der = make([][]float64, e.NEq)
	for c := 0; c < e.NEq; c++ {
		val[c] = make([]float64, npts)
		der[c] = make([]float64, npts)
		coef := e.Coeffs[sln][c]
		for k := 0; k <= e.P; k++ {
			if coef[k] == 0 {
				continue
			}
			for i := 0; i < npts; i++ {
				val[c][i] += coef[k] * tb.Val[k][i]
				der[c][i] += coef[k] * tb.Der[k][i] * jinv
			}
		}
	}
	return
}

// SolutionQuad evaluates slot sln at the points of an npts Gauss rule and
// returns the physical points and weights along with the values.
func (e *Element) SolutionQuad(sln, npts int) (x, w []float64, val, der [][]float64) {
	tb := TableFor(e.P, npts)
	x, w = quadrature.Physical(tb.Rule, e.X1, e.X2)
	val, der = e.SolutionOnTable(sln, tb)
	return
}

// SolutionAt evaluates slot sln at arbitrary physical points inside the
// element. Results are indexed [eq][point].
func (e *Element) SolutionAt(sln int, x []float64) (val, der [][]float64) {
	var (
		n    = len(x)
		r    = make([]float64, n)
		jinv = 1 / e.Jacobian()
	)
	for i := range x {
		r[i] = e.ToRef(x[i])
	}
	val = make([][]float64, e.NEq)
	der = make([][]float64, e.NEq)
	for c := range val {
		val[c] = make([]float64, n)
		der[c] = make([]float64, n)
	}
	for k := 0; k <= e.P; k++ {
		lv, ld := Lobatto(r, k)
		for c := 0; c < e.NEq; c++ {
			coef := e.Coeffs[sln][c][k]
			for i := 0; i < n; i++ {
				val[c][i] += coef * lv[i]
				der[c][i] += coef * ld[i] * jinv
			}
		}
	}
	return
}

// Evaluate returns the values and physical derivatives of every equation of
// slot sln at the single point x.
func (e *Element) Evaluate(sln int, x float64) (u, dudx []float64) {
	val, der := e.SolutionAt(sln, []float64{x})
	u = make([]float64, e.NEq)
	dudx = make([]float64, e.NEq)
	for c := range u {
		u[c], dudx[c] = val[c][0], der[c][0]
	}
	return
}

// SetOrder changes the polynomial degree in place. Raising the degree pads
// the bubble coefficients with zeros, lowering it truncates them; both are
// the H1-seminorm projection since bubble derivatives are orthonormal. DOF
// indices are invalidated.
func (e *Element) SetOrder(p int) error {
	if p < 1 || p > MaxP {
		return fmt.Errorf("element: order %d outside [1,%d]", p, MaxP)
	}
	old := e.Coeffs
	e.P = p
	e.alloc()
	for s := range old {
		for c := range old[s] {
			copy(e.Coeffs[s][c], old[s][c])
		}
	}
	return nil
}

// Split bisects e into two sons of degree pLeft and pRight. The sons carry
// the exact restriction of every solution slot of e.
func (e *Element) Split(pLeft, pRight int) (left, right Element, err error) {
	for _, p := range []int{pLeft, pRight} {
		if p < 1 || p > MaxP {
			return left, right, fmt.Errorf("element: order %d outside [1,%d]", p, MaxP)
		}
	}
	xm := (e.X1 + e.X2) / 2
	left = New(e.X1, xm, pLeft, e.NEq, e.NSln, e.Marker)
	right = New(xm, e.X2, pRight, e.NEq, e.NSln, e.Marker)
	left.Level, right.Level = e.Level+1, e.Level+1
	left.TransferFrom(e)
	right.TransferFrom(e)
	return
}

// TransferFrom sets the coefficients of e from the polynomial carried by
// src, which must cover e. Vertex coefficients interpolate src at the end
// points and bubble coefficients are the H1-seminorm projection; the
// transfer is exact whenever e.P >= src.P.
func (e *Element) TransferFrom(src *Element) {
	var (
		npts  = quadrature.PointsForOrder(e.P + src.P)
		tb    = TableFor(e.P, npts)
		x, _  = quadrature.Physical(tb.Rule, e.X1, e.X2)
		jac   = e.Jacobian()
		nslot = min(e.NSln, src.NSln)
	)
	for s := 0; s < nslot; s++ {
		_, der := src.SolutionAt(s, x)
		ul, _ := src.Evaluate(s, e.X1)
		ur, _ := src.Evaluate(s, e.X2)
		for c := 0; c < e.NEq; c++ {
			coef := e.Coeffs[s][c]
			coef[0], coef[1] = ul[c], ur[c]
			for k := 2; k <= e.P; k++ {
				var sum float64
				for i := range x {
					sum += der[c][i] * jac * tb.Der[k][i] * tb.Rule.Weights[i]
				}
				coef[k] = sum
			}
		}
	}
}

// NumLocalDOF is the number of shape functions per equation
func (e *Element) NumLocalDOF() int { return e.P + 1 }

func (e *Element) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Element %d [%g, %g] p=%d level=%d marker=%d",
		e.ID, e.X1, e.X2, e.P, e.Level, e.Marker)
	if !e.Active {
		sb.WriteString(" (inactive)")
	}
	return sb.String()
}

package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DenseMatrix stores the system in a gonum dense matrix
type DenseMatrix struct {
	n int
	m *mat.Dense
}

func (d *DenseMatrix) Zero(n int) {
	if n == 0 {
		d.n, d.m = 0, nil
		return
	}
	if d.m == nil || d.n != n {
		d.n = n
		d.m = mat.NewDense(n, n, nil)
		return
	}
	d.m.Zero()
}

func (d *DenseMatrix) Add(i, j int, v float64) { d.m.Set(i, j, d.m.At(i, j)+v) }

func (d *DenseMatrix) At(i, j int) float64 { return d.m.At(i, j) }

func (d *DenseMatrix) Size() int { return d.n }

// Dense exposes the gonum matrix
func (d *DenseMatrix) Dense() *mat.Dense { return d.m }

// DenseVector is a plain slice-backed vector
type DenseVector struct {
	data []float64
}

func (v *DenseVector) Zero(n int) {
	if cap(v.data) < n {
		v.data = make([]float64, n)
		return
	}
	v.data = v.data[:n]
	for i := range v.data {
		v.data[i] = 0
	}
}

func (v *DenseVector) Add(i int, val float64) { v.data[i] += val }
func (v *DenseVector) Set(i int, val float64) { v.data[i] = val }
func (v *DenseVector) At(i int) float64       { return v.data[i] }
func (v *DenseVector) Len() int               { return len(v.data) }
func (v *DenseVector) RawVector() []float64   { return v.data }

// luSolve factorizes A and solves A x = b
func luSolve(A mat.Matrix, b []float64) ([]float64, error) {
	n, _ := A.Dims()
	if n != len(b) {
		return nil, fmt.Errorf("%w: matrix %d, vector %d", ErrDimension, n, len(b))
	}
	var lu mat.LU
	lu.Factorize(A)
	x := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(x, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return x.RawVector().Data, nil
}

type denseSolver struct {
	A   *DenseMatrix
	b   Vector
	sol []float64
}

func (s *denseSolver) Solve() (err error) {
	if s.A.Size() == 0 {
		s.sol = nil
		return nil
	}
	s.sol, err = luSolve(s.A.Dense(), s.b.RawVector())
	return
}

func (s *denseSolver) Solution() []float64 { return s.sol }

package linalg

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SparseMatrix accumulates entries in a dictionary-of-keys matrix and
// compresses to CSR for the solve
type SparseMatrix struct {
	n   int
	dok *sparse.DOK
}

func (s *SparseMatrix) Zero(n int) {
	s.n = n
	if n == 0 {
		s.dok = nil
		return
	}
	s.dok = sparse.NewDOK(n, n)
}

func (s *SparseMatrix) Add(i, j int, v float64) {
	if v == 0 {
		return
	}
	s.dok.Set(i, j, s.dok.At(i, j)+v)
}

func (s *SparseMatrix) At(i, j int) float64 { return s.dok.At(i, j) }

func (s *SparseMatrix) Size() int { return s.n }

// NNZ is the number of stored entries
func (s *SparseMatrix) NNZ() int {
	if s.dok == nil {
		return 0
	}
	return s.dok.NNZ()
}

// CSR compresses the assembled entries
func (s *SparseMatrix) CSR() *sparse.CSR { return s.dok.ToCSR() }

type sparseSolver struct {
	A   *SparseMatrix
	b   Vector
	sol []float64
}

// Solve factorizes a dense copy of the CSR matrix with gonum LU and
// verifies the result against the compressed operator. Only storage and the
// residual check are sparse.
func (s *sparseSolver) Solve() (err error) {
	n := s.A.Size()
	if n == 0 {
		s.sol = nil
		return nil
	}
	csr := s.A.CSR()
	rhs := s.b.RawVector()
	if s.sol, err = luSolve(csr.ToDense(), rhs); err != nil {
		return
	}
	r := mat.NewVecDense(n, nil)
	r.MulVec(csr, mat.NewVecDense(n, s.sol))
	res := r.RawVector().Data
	floats.Sub(res, rhs)
	if nr, nb := floats.Norm(res, 2), floats.Norm(rhs, 2); nr > 1.e-8*(1+nb) {
		s.sol = nil
		return fmt.Errorf("%w: residual %g after solve", ErrSingular, nr)
	}
	return
}

func (s *sparseSolver) Solution() []float64 { return s.sol }

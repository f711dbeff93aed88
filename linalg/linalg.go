// Package linalg is the pluggable linear-solve backend used by the Newton
// engine. A backend provides a square matrix, a right-hand side vector and a
// solver bound to both; the Kind chosen in configuration decides the storage.
package linalg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSingular    = errors.New("linalg: matrix is singular or ill-conditioned")
	ErrUnknownKind = errors.New("linalg: unknown backend")
	ErrDimension   = errors.New("linalg: dimension mismatch")
)

// Kind selects a backend
type Kind uint8

const (
	Dense  Kind = iota // gonum dense storage, LU factorization
	Sparse             // dictionary-of-keys assembly, CSR storage; factorized densely, small systems only
)

func (k Kind) String() string {
	switch k {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind converts a configuration string into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Matrix is a square assembly target
type Matrix interface {
	// Zero resizes the matrix to n×n and clears every entry
	Zero(n int)
	Add(i, j int, v float64)
	At(i, j int) float64
	Size() int
}

// Vector is a dense assembly target
type Vector interface {
	Zero(n int)
	Add(i int, v float64)
	Set(i int, v float64)
	At(i int) float64
	Len() int
	// RawVector exposes the backing storage
	RawVector() []float64
}

// Solver solves the system bound at creation using the current contents of
// the matrix and vector
type Solver interface {
	Solve() error
	// Solution returns the increment computed by the last successful Solve
	Solution() []float64
}

// NewMatrix returns an empty matrix for the backend
func NewMatrix(k Kind) (Matrix, error) {
	switch k {
	case Dense:
		return &DenseMatrix{}, nil
	case Sparse:
		return &SparseMatrix{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, k)
}

// NewVector returns an empty vector; both backends share dense vectors
func NewVector(k Kind) (Vector, error) {
	switch k {
	case Dense, Sparse:
		return &DenseVector{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, k)
}

// NewSolver binds a solver to A and b. The matrix must come from the same
// backend.
func NewSolver(k Kind, A Matrix, b Vector) (Solver, error) {
	switch k {
	case Dense:
		dm, ok := A.(*DenseMatrix)
		if !ok {
			return nil, fmt.Errorf("%w: dense solver needs *DenseMatrix, got %T", ErrUnknownKind, A)
		}
		return &denseSolver{A: dm, b: b}, nil
	case Sparse:
		sm, ok := A.(*SparseMatrix)
		if !ok {
			return nil, fmt.Errorf("%w: sparse solver needs *SparseMatrix, got %T", ErrUnknownKind, A)
		}
		return &sparseSolver{A: sm, b: b}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, k)
}

// Backend bundles the matrix/vector/solver trio for one nonlinear solve
type Backend struct {
	Kind   Kind
	Matrix Matrix
	Vector Vector
	Solver Solver
}

// NewBackend creates the trio for kind k
func NewBackend(k Kind) (*Backend, error) {
	A, err := NewMatrix(k)
	if err != nil {
		return nil, err
	}
	b, err := NewVector(k)
	if err != nil {
		return nil, err
	}
	s, err := NewSolver(k, A, b)
	if err != nil {
		return nil, err
	}
	return &Backend{Kind: k, Matrix: A, Vector: b, Solver: s}, nil
}

// Release drops the storage held by the trio
func (bk *Backend) Release() {
	if bk == nil {
		return
	}
	bk.Matrix.Zero(0)
	bk.Vector.Zero(0)
}

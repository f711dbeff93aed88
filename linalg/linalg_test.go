package linalg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillTridiagonal(A Matrix, b Vector, n int) {
	A.Zero(n)
	b.Zero(n)
	for i := 0; i < n; i++ {
		A.Add(i, i, 2)
		A.Add(i, i, 2) // accumulation
		if i > 0 {
			A.Add(i, i-1, -1)
		}
		if i < n-1 {
			A.Add(i, i+1, -1.5)
		}
		b.Set(i, 1)
	}
}

func TestBackendsSolve(t *testing.T) {
	for _, k := range []Kind{Dense, Sparse} {
		t.Run(k.String(), func(t *testing.T) {
			bk, err := NewBackend(k)
			require.NoError(t, err)
			defer bk.Release()

			n := 8
			fillTridiagonal(bk.Matrix, bk.Vector, n)
			assert.Equal(t, 4., bk.Matrix.At(3, 3))
			require.NoError(t, bk.Solver.Solve())
			x := bk.Solver.Solution()
			require.Len(t, x, n)
			for i := 0; i < n; i++ {
				r := 4 * x[i]
				if i > 0 {
					r -= x[i-1]
				}
				if i < n-1 {
					r -= 1.5 * x[i+1]
				}
				assert.InDelta(t, 1., r, 1.e-12)
			}

			// Re-zeroing clears previous contents
			bk.Matrix.Zero(n)
			bk.Vector.Zero(n)
			assert.Equal(t, 0., bk.Matrix.At(3, 3))
			assert.Equal(t, 0., bk.Vector.At(3))
		})
	}
}

func TestSingular(t *testing.T) {
	for _, k := range []Kind{Dense, Sparse} {
		t.Run(k.String(), func(t *testing.T) {
			bk, err := NewBackend(k)
			require.NoError(t, err)
			bk.Matrix.Zero(3)
			bk.Vector.Zero(3)
			bk.Matrix.Add(0, 0, 1)
			bk.Matrix.Add(1, 1, 1)
			bk.Vector.Set(2, 1)
			err = bk.Solver.Solve()
			assert.True(t, errors.Is(err, ErrSingular), "got %v", err)
		})
	}
}

func TestEmptySystem(t *testing.T) {
	bk, err := NewBackend(Dense)
	require.NoError(t, err)
	bk.Matrix.Zero(0)
	bk.Vector.Zero(0)
	assert.NoError(t, bk.Solver.Solve())
	assert.Empty(t, bk.Solver.Solution())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Sparse")
	require.NoError(t, err)
	assert.Equal(t, Sparse, k)
	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, Dense, k)
	_, err = ParseKind("umfpack")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestSolverKindMismatch(t *testing.T) {
	_, err := NewSolver(Sparse, &DenseMatrix{}, &DenseVector{})
	assert.Error(t, err)
}

func TestSparseNNZ(t *testing.T) {
	A := &SparseMatrix{}
	A.Zero(4)
	A.Add(0, 0, 1)
	A.Add(0, 0, 1)
	A.Add(3, 1, 0)
	A.Add(2, 1, 5)
	assert.Equal(t, 2, A.NNZ())
}

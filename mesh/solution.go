package mesh

import (
	"gonum.org/v1/gonum/floats"
)

// SolutionToVector gathers the coefficients of slot sln into a vector
// indexed by global DOF
func (m *Mesh) SolutionToVector(sln int) []float64 {
	y := make([]float64, m.nDOF)
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		for eq := 0; eq < e.NEq; eq++ {
			for k, d := range e.DOF[eq] {
				if d >= 0 {
					y[d] = e.Coeffs[sln][eq][k]
				}
			}
		}
	}
	return y
}

// VectorToSolution scatters y into the coefficients of slot sln. Fixed DOFs
// are left untouched.
func (m *Mesh) VectorToSolution(y []float64, sln int) {
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		for eq := 0; eq < e.NEq; eq++ {
			for k, d := range e.DOF[eq] {
				if d >= 0 {
					e.Coeffs[sln][eq][k] = y[d]
				}
			}
		}
	}
}

// Synchronize makes the coefficients of shared vertices consistent after the
// element coefficients were set independently
func (m *Mesh) Synchronize(sln int) {
	m.VectorToSolution(m.SolutionToVector(sln), sln)
}

// CopyDOFs copies solution slot src into slot dst on every active element
func (m *Mesh) CopyDOFs(src, dst int) {
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		for eq := 0; eq < e.NEq; eq++ {
			copy(e.Coeffs[dst][eq], e.Coeffs[src][eq])
		}
	}
}

// SetVertexDOFsConstant sets every free vertex coefficient of slot sln to
// val and clears the bubbles, giving the constant function val away from
// Dirichlet ends
func (m *Mesh) SetVertexDOFsConstant(val float64, sln int) {
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		for eq := 0; eq < e.NEq; eq++ {
			coef := e.Coeffs[sln][eq]
			for k := range coef {
				switch {
				case k < 2 && e.DOF[eq][k] >= 0:
					coef[k] = val
				case k >= 2:
					coef[k] = 0
				}
			}
		}
	}
}

// MultiplyDOFs scales every coefficient of slot sln by c
func (m *Mesh) MultiplyDOFs(c float64, sln int) {
	for cur := m.Cursor(); ; {
		e, ok := cur.Next()
		if !ok {
			break
		}
		for eq := 0; eq < e.NEq; eq++ {
			floats.Scale(c, e.Coeffs[sln][eq])
		}
	}
}

// Evaluate returns the solution of slot sln and its derivative at x
func (m *Mesh) Evaluate(x float64, sln int) (u, dudx []float64, ok bool) {
	e, ok := m.Locate(x)
	if !ok {
		return nil, nil, false
	}
	u, dudx = e.Evaluate(sln, x)
	return u, dudx, true
}

// Linearize samples slot sln at n equidistant points per active element,
// returning x and the values per equation ([eq][point]) for plotting.
func (m *Mesh) Linearize(n, sln int) (x []float64, y [][]float64) {
	if n < 2 {
		n = 2
	}
	y = make([][]float64, m.NEq)
	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		pts := make([]float64, n)
		floats.Span(pts, e.X1, e.X2)
		val, _ := e.SolutionAt(sln, pts)
		x = append(x, pts...)
		for eq := range y {
			y[eq] = append(y[eq], val[eq]...)
		}
	}
	return
}

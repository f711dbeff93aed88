// Package dp holds the weak-form registry and the assembly of the global
// Jacobian and residual from it.
package dp

import (
	"fmt"

	"github.com/notargets/hp1d/element"
	"github.com/notargets/hp1d/linalg"
	"github.com/notargets/hp1d/mesh"
	"github.com/notargets/hp1d/quadrature"
)

type matrixEntry struct {
	i, j   int
	marker int
	form   MatrixForm
}

type vectorEntry struct {
	i      int
	marker int
	form   VectorForm
}

type matrixSurfEntry struct {
	i, j     int
	boundary Boundary
	form     MatrixSurfForm
}

type vectorSurfEntry struct {
	i        int
	boundary Boundary
	form     VectorSurfForm
}

// DiscreteProblem maps (equation, equation, marker) keys to Jacobian forms
// and (equation, marker) keys to residual forms, plus surface forms keyed by
// boundary. Elements or boundaries without a matching form contribute
// nothing. A registered problem is read-only during assembly and may be
// shared by concurrent assemblies on different meshes.
type DiscreteProblem struct {
	matrix     []matrixEntry
	vector     []vectorEntry
	matrixSurf []matrixSurfEntry
	vectorSurf []vectorSurfEntry

	// QuadOrder gives the polynomial degree integrated exactly on an
	// element of order p; defaults to 3p+1
	QuadOrder func(p int) int
}

// New returns an empty problem
func New() *DiscreteProblem {
	return &DiscreteProblem{}
}

func markersOrAny(markers []int) []int {
	if len(markers) == 0 {
		return []int{AnyMarker}
	}
	return markers
}

// AddMatrixForm registers the Jacobian block (i,j) for the given markers
// (every marker when none are given)
func (d *DiscreteProblem) AddMatrixForm(i, j int, f MatrixForm, markers ...int) {
	for _, mk := range markersOrAny(markers) {
		d.matrix = append(d.matrix, matrixEntry{i: i, j: j, marker: mk, form: f})
	}
}

// AddVectorForm registers the residual of equation i for the given markers
func (d *DiscreteProblem) AddVectorForm(i int, f VectorForm, markers ...int) {
	for _, mk := range markersOrAny(markers) {
		d.vector = append(d.vector, vectorEntry{i: i, marker: mk, form: f})
	}
}

func (d *DiscreteProblem) AddMatrixFormSurf(i, j int, f MatrixSurfForm, b Boundary) {
	d.matrixSurf = append(d.matrixSurf, matrixSurfEntry{i: i, j: j, boundary: b, form: f})
}

func (d *DiscreteProblem) AddVectorFormSurf(i int, f VectorSurfForm, b Boundary) {
	d.vectorSurf = append(d.vectorSurf, vectorSurfEntry{i: i, boundary: b, form: f})
}

func (d *DiscreteProblem) quadPoints(p int) int {
	if d.QuadOrder != nil {
		return quadrature.PointsForOrder(d.QuadOrder(p))
	}
	return quadrature.PointsForOrder(3*p + 1)
}

func matches(registered, marker int) bool {
	return registered == AnyMarker || registered == marker
}

// Assemble overwrites J and F with the Jacobian and residual of the current
// solution (slot 0) on m. J may be nil to assemble the residual only.
func (d *DiscreteProblem) Assemble(m *mesh.Mesh, J linalg.Matrix, F linalg.Vector) error {
	n := m.NumDOFs()
	if J != nil {
		J.Zero(n)
	}
	F.Zero(n)

	for c := m.Cursor(); ; {
		e, ok := c.Next()
		if !ok {
			break
		}
		if err := d.assembleElement(e, J, F); err != nil {
			return err
		}
	}
	if err := d.assembleBoundary(m, BoundaryLeft, m.First(), -1, J, F); err != nil {
		return err
	}
	return d.assembleBoundary(m, BoundaryRight, m.Last(), 1, J, F)
}

// AssembleVector assembles the residual only
func (d *DiscreteProblem) AssembleVector(m *mesh.Mesh, F linalg.Vector) error {
	return d.Assemble(m, nil, F)
}

func (d *DiscreteProblem) elementData(e *element.Element) (*FormData, []Basis) {
	tb := element.TableFor(e.P, d.quadPoints(e.P))
	x, w := quadrature.Physical(tb.Rule, e.X1, e.X2)
	fd := &FormData{
		Elem: e,
		X:    x,
		W:    w,
		U:    make([][][]float64, e.NSln),
		DUDX: make([][][]float64, e.NSln),
	}
	for s := 0; s < e.NSln; s++ {
		fd.U[s], fd.DUDX[s] = e.SolutionOnTable(s, tb)
	}
	jinv := 1 / e.Jacobian()
	basis := make([]Basis, e.P+1)
	for k := range basis {
		dv := make([]float64, len(x))
		for i := range dv {
			dv[i] = tb.Der[k][i] * jinv
		}
		basis[k] = Basis{V: tb.Val[k], DVDX: dv}
	}
	return fd, basis
}

func (d *DiscreteProblem) assembleElement(e *element.Element, J linalg.Matrix, F linalg.Vector) error {
	var (
		fd    *FormData
		basis []Basis
	)
	lazy := func() {
		if fd == nil {
			fd, basis = d.elementData(e)
		}
	}
	if J != nil {
		for _, me := range d.matrix {
			if !matches(me.marker, e.Marker) {
				continue
			}
			if me.i >= e.NEq || me.j >= e.NEq {
				return fmt.Errorf("dp: matrix form (%d,%d) on element with %d equations", me.i, me.j, e.NEq)
			}
			lazy()
			for k, row := range e.DOF[me.i] {
				if row < 0 {
					continue
				}
				for l, col := range e.DOF[me.j] {
					if col < 0 {
						continue
					}
					J.Add(row, col, me.form.Jacobian(fd, basis[l], basis[k]))
				}
			}
		}
	}
	for _, ve := range d.vector {
		if !matches(ve.marker, e.Marker) {
			continue
		}
		if ve.i >= e.NEq {
			return fmt.Errorf("dp: vector form %d on element with %d equations", ve.i, e.NEq)
		}
		lazy()
		for k, row := range e.DOF[ve.i] {
			if row < 0 {
				continue
			}
			F.Add(row, ve.form.Residual(fd, basis[k]))
		}
	}
	return nil
}

func (d *DiscreteProblem) assembleBoundary(m *mesh.Mesh, b Boundary, e *element.Element, r float64,
	J linalg.Matrix, F linalg.Vector) error {
	var (
		sd    *SurfData
		basis []SurfBasis
	)
	lazy := func() {
		if sd != nil {
			return
		}
		x := e.X1
		bc := m.Left
		if b == BoundaryRight {
			x, bc = e.X2, m.Right
		}
		sd = &SurfData{
			Elem:     e,
			Boundary: b,
			X:        x,
			BC:       bc,
			U:        make([][]float64, e.NSln),
			DUDX:     make([][]float64, e.NSln),
		}
		for s := 0; s < e.NSln; s++ {
			sd.U[s], sd.DUDX[s] = e.Evaluate(s, x)
		}
		val, der := element.LobattoAt(r, e.P)
		jinv := 1 / e.Jacobian()
		basis = make([]SurfBasis, e.P+1)
		for k := range basis {
			basis[k] = SurfBasis{V: val[k], DVDX: der[k] * jinv}
		}
	}
	if J != nil {
		for _, me := range d.matrixSurf {
			if me.boundary != b {
				continue
			}
			if me.i >= e.NEq || me.j >= e.NEq {
				return fmt.Errorf("dp: %v surface matrix form (%d,%d) on element with %d equations",
					b, me.i, me.j, e.NEq)
			}
			lazy()
			for k, row := range e.DOF[me.i] {
				if row < 0 {
					continue
				}
				for l, col := range e.DOF[me.j] {
					if col < 0 {
						continue
					}
					J.Add(row, col, me.form.JacobianSurf(sd, basis[l], basis[k]))
				}
			}
		}
	}
	for _, ve := range d.vectorSurf {
		if ve.boundary != b {
			continue
		}
		if ve.i >= e.NEq {
			return fmt.Errorf("dp: %v surface vector form %d on element with %d equations", b, ve.i, e.NEq)
		}
		lazy()
		for k, row := range e.DOF[ve.i] {
			if row < 0 {
				continue
			}
			F.Add(row, ve.form.ResidualSurf(sd, basis[k]))
		}
	}
	return nil
}

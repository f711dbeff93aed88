package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/hp1d/element"
)

var (
	ErrBadIndex  = errors.New("mesh: active element index out of range")
	ErrBadRegion = errors.New("mesh: invalid region definition")
	ErrMaxOrder  = errors.New("mesh: polynomial order limit exceeded")
)

// BCKind identifies the type of a boundary condition record
type BCKind uint8

const (
	Natural   BCKind = iota // nothing prescribed
	Dirichlet               // u = Value
	Neumann                 // D u' = Value (sign convention owned by the forms)
	Robin                   // Coef u + D u' = Value
)

// BC is the boundary condition record for one equation at one domain end
type BC struct {
	Kind  BCKind
	Value float64
	Coef  float64
}

// Region describes a material macro-element subdivided into equal elements
type Region struct {
	X1, X2       float64
	P            int
	Marker       int
	Subdivisions int
}

// Mesh owns an arena of elements. Base elements partition [A,B]; refined
// elements keep their inactive ancestors so the refinement hierarchy
// survives. Active elements are visited in domain order by a depth-first
// walk of the base elements.
type Mesh struct {
	A, B float64
	NEq  int
	NSln int

	elems []element.Element
	base  []int
	nDOF  int

	Left, Right []BC // per equation
}

// New creates a mesh of nElem equal elements of degree p on [a,b]
func New(a, b float64, nElem, p, nEq, nSln int) (*Mesh, error) {
	return NewMaterial([]Region{{X1: a, X2: b, P: p, Subdivisions: nElem}}, nEq, nSln)
}

// NewMaterial creates a mesh from consecutive material regions
func NewMaterial(regions []Region, nEq, nSln int) (m *Mesh, err error) {
	if len(regions) == 0 || nEq < 1 || nSln < 1 {
		return nil, fmt.Errorf("%w: %d regions, %d equations, %d solutions",
			ErrBadRegion, len(regions), nEq, nSln)
	}
	m = &Mesh{
		A:     regions[0].X1,
		B:     regions[len(regions)-1].X2,
		NEq:   nEq,
		NSln:  nSln,
		Left:  make([]BC, nEq),
		Right: make([]BC, nEq),
	}
	for ir, r := range regions {
		switch {
		case r.X2 <= r.X1, r.Subdivisions < 1:
			return nil, fmt.Errorf("%w: region %d [%g,%g] with %d subdivisions",
				ErrBadRegion, ir, r.X1, r.X2, r.Subdivisions)
		case r.P < 1 || r.P > element.MaxP:
			return nil, fmt.Errorf("%w: region %d order %d", ErrMaxOrder, ir, r.P)
		case ir > 0 && r.X1 != regions[ir-1].X2:
			return nil, fmt.Errorf("%w: region %d does not start at %g", ErrBadRegion, ir, regions[ir-1].X2)
		}
		h := (r.X2 - r.X1) / float64(r.Subdivisions)
		for k := 0; k < r.Subdivisions; k++ {
			x1 := r.X1 + float64(k)*h
			x2 := x1 + h
			if k == r.Subdivisions-1 {
				x2 = r.X2
			}
			m.base = append(m.base, len(m.elems))
			m.elems = append(m.elems, element.New(x1, x2, r.P, nEq, nSln, r.Marker))
		}
	}
	return
}

func (m *Mesh) SetBCLeftDirichlet(eq int, val float64) {
	m.Left[eq] = BC{Kind: Dirichlet, Value: val}
}

func (m *Mesh) SetBCRightDirichlet(eq int, val float64) {
	m.Right[eq] = BC{Kind: Dirichlet, Value: val}
}

func (m *Mesh) SetBCLeftNeumann(eq int, val float64) {
	m.Left[eq] = BC{Kind: Neumann, Value: val}
}

func (m *Mesh) SetBCRightNeumann(eq int, val float64) {
	m.Right[eq] = BC{Kind: Neumann, Value: val}
}

// SetBCRightRobin prescribes coef*u + D*u' = val at the right end
func (m *Mesh) SetBCRightRobin(eq int, coef, val float64) {
	m.Right[eq] = BC{Kind: Robin, Coef: coef, Value: val}
}

// activeIndices returns the arena indices of the active elements in domain order
func (m *Mesh) activeIndices() []int {
	idx := make([]int, 0, len(m.elems))
	var walk func(i int)
	walk = func(i int) {
		e := &m.elems[i]
		if e.Active {
			idx = append(idx, i)
			return
		}
		for _, s := range e.Sons {
			if s >= 0 {
				walk(s)
			}
		}
	}
	for _, b := range m.base {
		walk(b)
	}
	return idx
}

// NumActive returns the number of active elements
func (m *Mesh) NumActive() int { return len(m.activeIndices()) }

// NumDOFs returns the DOF count from the last AssignDOFs call
func (m *Mesh) NumDOFs() int { return m.nDOF }

// NumElements returns the arena size, including inactive ancestors
func (m *Mesh) NumElements() int { return len(m.elems) }

// Element returns the arena element at index i
func (m *Mesh) Element(i int) *element.Element { return &m.elems[i] }

// ActiveIndex maps an active element position to its arena index
func (m *Mesh) ActiveIndex(i int) (int, error) {
	idx := m.activeIndices()
	if i < 0 || i >= len(idx) {
		return -1, fmt.Errorf("%w: %d of %d", ErrBadIndex, i, len(idx))
	}
	return idx[i], nil
}

// Active returns the i-th active element in domain order
func (m *Mesh) Active(i int) (*element.Element, error) {
	a, err := m.ActiveIndex(i)
	if err != nil {
		return nil, err
	}
	return &m.elems[a], nil
}

// First and Last return the active elements touching the domain ends
func (m *Mesh) First() *element.Element {
	idx := m.activeIndices()
	return &m.elems[idx[0]]
}

func (m *Mesh) Last() *element.Element {
	idx := m.activeIndices()
	return &m.elems[idx[len(idx)-1]]
}

// AssignDOFs enumerates the global DOFs left to right and returns their
// count. For each active element and equation the left vertex (first
// element only), the right vertex and then the bubbles are numbered; the
// left vertex of every other element shares its neighbour's right vertex.
// DOFs fixed by a Dirichlet condition get index -1 and carry the prescribed
// value in every solution slot.
func (m *Mesh) AssignDOFs() int {
	var (
		idx   = m.activeIndices()
		count int
		prev  = make([]int, m.NEq)
	)
	for k, a := range idx {
		e := &m.elems[a]
		e.ID = k
		for c := 0; c < m.NEq; c++ {
			dof := e.DOF[c]
			switch {
			case k > 0:
				dof[0] = prev[c]
			case m.Left[c].Kind == Dirichlet:
				dof[0] = -1
				for s := range e.Coeffs {
					e.Coeffs[s][c][0] = m.Left[c].Value
				}
			default:
				dof[0] = count
				count++
			}
			if k == len(idx)-1 && m.Right[c].Kind == Dirichlet {
				dof[1] = -1
				for s := range e.Coeffs {
					e.Coeffs[s][c][1] = m.Right[c].Value
				}
			} else {
				dof[1] = count
				count++
			}
			for j := 2; j <= e.P; j++ {
				dof[j] = count
				count++
			}
			prev[c] = dof[1]
		}
	}
	m.nDOF = count
	return count
}

// Replicate returns a deep copy of the mesh including all solution slots
func (m *Mesh) Replicate() *Mesh {
	cp := &Mesh{
		A:     m.A,
		B:     m.B,
		NEq:   m.NEq,
		NSln:  m.NSln,
		base:  append([]int(nil), m.base...),
		nDOF:  m.nDOF,
		Left:  append([]BC(nil), m.Left...),
		Right: append([]BC(nil), m.Right...),
		elems: make([]element.Element, len(m.elems)),
	}
	for i := range m.elems {
		cp.elems[i] = m.elems[i].Clone()
	}
	return cp
}

// Locate returns the active element containing x, preferring the left one
// at shared vertices
func (m *Mesh) Locate(x float64) (*element.Element, bool) {
	if x < m.A || x > m.B {
		return nil, false
	}
	idx := m.activeIndices()
	k := sort.Search(len(idx), func(i int) bool { return m.elems[idx[i]].X2 >= x })
	if k == len(idx) {
		k = len(idx) - 1
	}
	return &m.elems[idx[k]], true
}

// Interval describes the geometry of an active element for output sinks
type Interval struct {
	X1, X2 float64
	P      int
	Level  int
	Marker int
}

// Geometry returns the active element geometry in domain order
func (m *Mesh) Geometry() []Interval {
	idx := m.activeIndices()
	out := make([]Interval, len(idx))
	for k, a := range idx {
		e := &m.elems[a]
		out[k] = Interval{X1: e.X1, X2: e.X2, P: e.P, Level: e.Level, Marker: e.Marker}
	}
	return out
}

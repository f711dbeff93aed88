package mesh

import (
	"fmt"

	"github.com/notargets/hp1d/element"
)

// RefineMode selects how a single element is refined
type RefineMode uint8

const (
	RefineH  RefineMode = iota // two halves, same order
	RefineP                    // one element, order + 1
	RefineHP                   // two halves, order + 1
)

func (r RefineMode) String() string {
	switch r {
	case RefineH:
		return "h"
	case RefineP:
		return "p"
	case RefineHP:
		return "hp"
	}
	return fmt.Sprintf("RefineMode(%d)", uint8(r))
}

// Refinement records which active elements of a refined mesh descend from
// coarse active element Coarse: positions First..First+Count-1. Active
// elements left of Coarse keep their position; those to the right are
// shifted by Count-1.
type Refinement struct {
	Coarse int
	First  int
	Count  int
}

// Descendants maps a coarse active position j to its range in the refined mesh
func (r Refinement) Descendants(j int) (first, count int) {
	switch {
	case j < r.Coarse:
		return j, 1
	case j == r.Coarse:
		return r.First, r.Count
	default:
		return j + r.Count - 1, 1
	}
}

// replace deactivates arena element a and appends sons in its place
func (m *Mesh) replace(a int, sons ...element.Element) []int {
	ids := make([]int, len(sons))
	m.elems[a].Active = false
	m.elems[a].Sons = [2]int{-1, -1}
	for k := range sons {
		sons[k].Parent = a
		sons[k].Active = true
		ids[k] = len(m.elems)
		m.elems = append(m.elems, sons[k])
		m.elems[a].Sons[k] = ids[k]
	}
	return ids
}

// ReferenceRefinement replaces active element i by its reference
// counterpart: two halves of the same order (RefineH), one element of order
// +1 (RefineP) or two halves of order +1 (RefineHP). The coarse element is kept
// inactive and the solution is transferred exactly. DOFs must be reassigned
// afterwards.
func (m *Mesh) ReferenceRefinement(i int, mode RefineMode) (ref Refinement, err error) {
	a, err := m.ActiveIndex(i)
	if err != nil {
		return
	}
	e := m.elems[a].Clone()
	ref = Refinement{Coarse: i, First: i, Count: 1}
	switch mode {
	case RefineH, RefineHP:
		p := e.P
		if mode == RefineHP {
			p++
		}
		if p > element.MaxP {
			return ref, fmt.Errorf("%w: element %d order %d", ErrMaxOrder, i, p)
		}
		left, right, serr := e.Split(p, p)
		if serr != nil {
			return ref, serr
		}
		m.replace(a, left, right)
		ref.Count = 2
	case RefineP:
		if e.P+1 > element.MaxP {
			return ref, fmt.Errorf("%w: element %d order %d", ErrMaxOrder, i, e.P+1)
		}
		son := e.Clone()
		if err = son.SetOrder(e.P + 1); err != nil {
			return
		}
		son.Sons = [2]int{-1, -1}
		m.replace(a, son)
	default:
		return ref, fmt.Errorf("mesh: unknown refinement mode %v", mode)
	}
	return
}

// SplitActive bisects active element i into sons of order pLeft and pRight,
// transferring the solution. It returns the arena indices of the sons.
func (m *Mesh) SplitActive(i, pLeft, pRight int) (sons []int, err error) {
	a, err := m.ActiveIndex(i)
	if err != nil {
		return
	}
	left, right, err := m.elems[a].Split(pLeft, pRight)
	if err != nil {
		return nil, fmt.Errorf("%w: element %d", err, i)
	}
	return m.replace(a, left, right), nil
}

// SetOrder changes the order of active element i in place
func (m *Mesh) SetOrder(i, p int) error {
	a, err := m.ActiveIndex(i)
	if err != nil {
		return err
	}
	if p > element.MaxP {
		return fmt.Errorf("%w: element %d order %d", ErrMaxOrder, i, p)
	}
	return m.elems[a].SetOrder(p)
}

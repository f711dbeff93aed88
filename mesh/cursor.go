package mesh

import "github.com/notargets/hp1d/element"

// Cursor walks the active elements once in domain order. The active set is
// captured at creation; build a new cursor to restart.
type Cursor struct {
	m   *Mesh
	idx []int
	pos int
}

// Cursor returns a fresh traversal of the active elements
func (m *Mesh) Cursor() *Cursor {
	return &Cursor{m: m, idx: m.activeIndices()}
}

// Next returns the next active element, or false when exhausted
func (c *Cursor) Next() (*element.Element, bool) {
	if c.pos >= len(c.idx) {
		return nil, false
	}
	e := &c.m.elems[c.idx[c.pos]]
	c.pos++
	return e, true
}

// Len is the number of elements the cursor visits
func (c *Cursor) Len() int { return len(c.idx) }

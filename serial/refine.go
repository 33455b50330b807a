package serial

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

const geometryTol = 1e-10

// Refine subdivides the triangles of a 2D mesh. With adaptive set only the
// elements flagged Refine are split (red refinement into four) and their
// neighbours are closed conformingly: a triangle with one refined edge is
// bisected, one with two is promoted to red. Without adaptive every element
// is split. Midpoints of boundary edges on the geometry are projected onto
// it. Flags are cleared and curving is dropped afterwards. A mesh without
// flagged elements is left untouched.
func (m *Mesh) Refine(adaptive bool) error {
	if m.dim != 2 {
		return mberrors.UnsupportedDimension("refine", m.dim, 2)
	}
	for i, el := range m.elements {
		if el.Type != reference.Tri {
			return fmt.Errorf("refine element %d of type %v: %w", i, el.Type, mberrors.ErrUnsupported)
		}
	}
	if adaptive && m.NumMarked() == 0 {
		return nil
	}

	type edgeKey [2]int
	edgeOf := func(a, b int) edgeKey {
		if a > b {
			a, b = b, a
		}
		return edgeKey{a, b}
	}
	// local edge i of a triangle joins vertex i and vertex i+1
	localEdges := func(el *Element) [3]edgeKey {
		v := el.Vertices
		return [3]edgeKey{edgeOf(v[0], v[1]), edgeOf(v[1], v[2]), edgeOf(v[2], v[0])}
	}

	edgeAdj := make(map[edgeKey]int)
	for _, el := range m.elements {
		for _, e := range localEdges(el) {
			edgeAdj[e]++
		}
	}

	marked := make(map[edgeKey]bool)
	for _, el := range m.elements {
		if !adaptive || el.Refine {
			for _, e := range localEdges(el) {
				marked[e] = true
			}
		}
	}
	// closure: two refined edges promote the triangle to red
	for changed := true; changed; {
		changed = false
		for _, el := range m.elements {
			n := 0
			var free edgeKey
			for _, e := range localEdges(el) {
				if marked[e] {
					n++
				} else {
					free = e
				}
			}
			if n == 2 {
				marked[free] = true
				changed = true
			}
		}
	}

	mid := make(map[edgeKey]int)
	midpoint := func(e edgeKey) int {
		if id, ok := mid[e]; ok {
			return id
		}
		a, b := m.Points[e[0]], m.Points[e[1]]
		p := make([]float64, len(a))
		for i := range p {
			p[i] = 0.5 * (a[i] + b[i])
		}
		if m.Geometry != nil && edgeAdj[e] == 1 &&
			m.Geometry.Contains(a, geometryTol) && m.Geometry.Contains(b, geometryTol) {
			p = m.Geometry.Project(p)
		}
		m.Points = append(m.Points, p)
		mid[e] = len(m.Points) - 1
		return mid[e]
	}

	refined := make([]*Element, 0, len(m.elements))
	tri := func(a, b, c int) {
		refined = append(refined, &Element{Type: reference.Tri, Vertices: []int{a, b, c}})
	}
	for _, el := range m.elements {
		v := el.Vertices
		edges := localEdges(el)
		var nMarked, last int
		for i, e := range edges {
			if marked[e] {
				nMarked++
				last = i
			}
		}
		switch nMarked {
		case 0:
			tri(v[0], v[1], v[2])
		case 1:
			i, j, k := last, (last+1)%3, (last+2)%3
			mij := midpoint(edges[last])
			tri(v[i], mij, v[k])
			tri(mij, v[j], v[k])
		case 3:
			m01, m12, m20 := midpoint(edges[0]), midpoint(edges[1]), midpoint(edges[2])
			tri(v[0], m01, m20)
			tri(m01, v[1], m12)
			tri(m20, m12, v[2])
			tri(m01, m12, m20)
		default:
			panic("refinement closure left a triangle with two refined edges")
		}
	}
	m.elements = refined
	m.straighten()
	return nil
}

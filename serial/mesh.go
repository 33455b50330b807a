// Package serial holds the authoritative single-owner mesh: an ordered
// element list over a point list, with per-element refine and curved flags,
// adaptive refinement and higher-order curving against a boundary geometry.
package serial

import (
	"fmt"

	"github.com/notargets/meshbridge/reference"
)

// Element is one cell of a serial mesh.
type Element struct {
	Type     reference.GeometryType
	Vertices []int
	Refine   bool
	Curved   bool

	// nodes holds the curved geometry at the lattice points of the mesh
	// curve order, set only when Curved.
	nodes [][]float64
}

// CurvedNodes returns the curved lattice nodes, or nil for a straight element.
func (el *Element) CurvedNodes() [][]float64 { return el.nodes }

// Mesh is a mesh of cells of a single topological dimension equal to the
// coordinate dimension.
type Mesh struct {
	dim      int
	Points   [][]float64
	elements []*Element

	// Geometry describes the curved boundary; nil means straight sided.
	Geometry Geometry

	curveOrder int
}

// NewMesh returns an empty mesh of dimension dim. An empty mesh is also the
// placeholder held by workers that do not own the authoritative mesh.
func NewMesh(dim int) *Mesh {
	if dim < 1 {
		panic(fmt.Sprintf("serial mesh dimension %d < 1", dim))
	}
	return &Mesh{dim: dim}
}

func (m *Mesh) Dim() int             { return m.dim }
func (m *Mesh) NumPoints() int       { return len(m.Points) }
func (m *Mesh) NumElements() int     { return len(m.elements) }
func (m *Mesh) CurveOrder() int      { return m.curveOrder }
func (m *Mesh) Elements() []*Element { return m.elements }

// Elements2D returns the cells of a two dimensional mesh, nil otherwise.
func (m *Mesh) Elements2D() []*Element {
	if m.dim != 2 {
		return nil
	}
	return m.elements
}

// Elements3D returns the cells of a three dimensional mesh, nil otherwise.
func (m *Mesh) Elements3D() []*Element {
	if m.dim != 3 {
		return nil
	}
	return m.elements
}

// AddPoint appends a point and returns its index.
func (m *Mesh) AddPoint(p ...float64) (int, error) {
	if len(p) != m.dim {
		return 0, fmt.Errorf("point has %d coordinates, mesh dimension is %d", len(p), m.dim)
	}
	m.Points = append(m.Points, append([]float64(nil), p...))
	return len(m.Points) - 1, nil
}

// AddElement appends a cell over existing points.
func (m *Mesh) AddElement(g reference.GeometryType, verts ...int) (*Element, error) {
	if g.Dimension() != m.dim {
		return nil, fmt.Errorf("%v element in a %dD mesh", g, m.dim)
	}
	if len(verts) != g.NumVertices() {
		return nil, fmt.Errorf("%v element needs %d vertices, got %d", g, g.NumVertices(), len(verts))
	}
	for _, v := range verts {
		if v < 0 || v >= len(m.Points) {
			return nil, fmt.Errorf("vertex %d out of range [0,%d)", v, len(m.Points))
		}
	}
	el := &Element{Type: g, Vertices: append([]int(nil), verts...)}
	m.elements = append(m.elements, el)
	return el, nil
}

// VertexCoords returns the coordinates of an element's vertices.
func (m *Mesh) VertexCoords(el *Element) [][]float64 {
	out := make([][]float64, len(el.Vertices))
	for i, v := range el.Vertices {
		out[i] = m.Points[v]
	}
	return out
}

// ElementTypes returns the distinct cell types in first-seen order.
func (m *Mesh) ElementTypes() []reference.GeometryType {
	var out []reference.GeometryType
	seen := map[reference.GeometryType]bool{}
	for _, el := range m.elements {
		if !seen[el.Type] {
			seen[el.Type] = true
			out = append(out, el.Type)
		}
	}
	return out
}

// NumMarked counts elements flagged for refinement.
func (m *Mesh) NumMarked() int {
	n := 0
	for _, el := range m.elements {
		if el.Refine {
			n++
		}
	}
	return n
}

func (m *Mesh) straighten() {
	m.curveOrder = 0
	for _, el := range m.elements {
		el.Curved = false
		el.nodes = nil
	}
}

// simplexKey identifies a sub-simplex by its sorted global vertex ids,
// padded with -1.
type simplexKey [4]int

func keyOf(verts ...int) simplexKey {
	k := simplexKey{-1, -1, -1, -1}
	copy(k[:], verts)
	n := len(verts)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && k[j] < k[j-1]; j-- {
			k[j], k[j-1] = k[j-1], k[j]
		}
	}
	return k
}

// facets returns the vertex lists of the codimension one entities of a
// simplex, facet i opposite vertex i.
func facets(verts []int) [][]int {
	out := make([][]int, len(verts))
	for i := range verts {
		f := make([]int, 0, len(verts)-1)
		for j, v := range verts {
			if j != i {
				f = append(f, v)
			}
		}
		out[i] = f
	}
	return out
}

// facetAdjacency counts the cells sharing each facet.
func (m *Mesh) facetAdjacency() map[simplexKey]int {
	adj := make(map[simplexKey]int)
	for _, el := range m.elements {
		for _, f := range facets(el.Vertices) {
			adj[keyOf(f...)]++
		}
	}
	return adj
}

package serial

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

// Local vertex splits of hexahedra and quadrilaterals. Hexahedra use the
// Kuhn subdivision along the 0-6 diagonal, which is conforming only between
// neighbours sharing the local vertex ordering, as in a structured box.
var splitTable = map[reference.GeometryType][][]int{
	reference.Hex: {
		{0, 1, 2, 6}, {0, 1, 5, 6}, {0, 3, 2, 6},
		{0, 3, 7, 6}, {0, 4, 5, 6}, {0, 4, 7, 6},
	},
	reference.Rectangle: {{0, 1, 2}, {0, 2, 3}},
}

// prismRotations reorders a prism so that local vertex k comes first while
// keeping vertex i+3 above vertex i.
var prismRotations = [6][6]int{
	{0, 1, 2, 3, 4, 5},
	{1, 2, 0, 4, 5, 3},
	{2, 0, 1, 5, 3, 4},
	{3, 5, 4, 0, 2, 1},
	{4, 3, 5, 1, 0, 2},
	{5, 4, 3, 2, 1, 0},
}

// splitPrism cuts every quadrilateral face along the diagonal through its
// smallest global vertex, so neighbouring prisms agree on shared faces
// whatever their local ordering.
func splitPrism(verts []int) [][]int {
	first := 0
	for i, v := range verts {
		if v < verts[first] {
			first = i
		}
	}
	var v [6]int
	for i, j := range prismRotations[first] {
		v[i] = verts[j]
	}
	// the faces through v[0] are cut through it; the opposite face 1-2-5-4
	// is cut along 1-5 or 2-4
	if min(v[1], v[5]) < min(v[2], v[4]) {
		return [][]int{{v[0], v[1], v[2], v[5]}, {v[0], v[1], v[5], v[4]}, {v[0], v[4], v[5], v[3]}}
	}
	return [][]int{{v[0], v[1], v[2], v[4]}, {v[0], v[4], v[2], v[5]}, {v[0], v[4], v[5], v[3]}}
}

// splitPyramid cuts the base along the diagonal through its smallest global
// vertex.
func splitPyramid(v []int) [][]int {
	if min(v[0], v[2]) < min(v[1], v[3]) {
		return [][]int{{v[0], v[1], v[2], v[4]}, {v[0], v[2], v[3], v[4]}}
	}
	return [][]int{{v[0], v[1], v[3], v[4]}, {v[1], v[2], v[3], v[4]}}
}

func splitCell(el *Element) ([][]int, bool) {
	switch el.Type {
	case reference.Prism:
		return splitPrism(el.Vertices), true
	case reference.Pyramid:
		return splitPyramid(el.Vertices), true
	}
	table, ok := splitTable[el.Type]
	if !ok {
		return nil, false
	}
	out := make([][]int, len(table))
	for i, local := range table {
		out[i] = make([]int, len(local))
		for k, lv := range local {
			out[i][k] = el.Vertices[lv]
		}
	}
	return out, true
}

// Split2Tets replaces every non-simplex cell by simplices: tetrahedra in 3D,
// triangles in 2D. Simplex cells are kept in place; the relative order of
// cells is preserved.
func (m *Mesh) Split2Tets() error {
	if m.dim != 2 && m.dim != 3 {
		return mberrors.UnsupportedDimension("split_to_simplices", m.dim, 2, 3)
	}
	simplex, _ := reference.SimplexOfDim(m.dim)
	out := make([]*Element, 0, len(m.elements))
	for i, el := range m.elements {
		if el.Type.IsSimplex() {
			out = append(out, &Element{Type: el.Type, Vertices: el.Vertices, Refine: el.Refine})
			continue
		}
		cells, ok := splitCell(el)
		if !ok {
			return fmt.Errorf("split element %d of type %v: %w", i, el.Type, mberrors.ErrUnsupported)
		}
		for _, verts := range cells {
			out = append(out, &Element{Type: simplex, Vertices: verts, Refine: el.Refine})
		}
	}
	m.elements = out
	m.straighten()
	return nil
}

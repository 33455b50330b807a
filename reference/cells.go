// Package reference describes reference simplices: their sub-entities,
// equispaced point sets on those sub-entities and nodal Lagrange bases.
//
// Reference cells use the UFC convention: the triangle has vertices
// (0,0), (1,0), (0,1) and the tetrahedron (0,0,0), (1,0,0), (0,1,0),
// (0,0,1). A codimension-one entity i is opposite vertex i.
package reference

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
)

// Entity names one sub-entity of a reference cell.
type Entity struct {
	Dim int
	ID  int
}

var simplexTopology = map[GeometryType][][][]int{
	Line: {
		{{0}, {1}},
		{{0, 1}},
	},
	Tri: {
		{{0}, {1}, {2}},
		{{1, 2}, {0, 2}, {0, 1}},
		{{0, 1, 2}},
	},
	Tet: {
		{{0}, {1}, {2}, {3}},
		{{2, 3}, {1, 3}, {1, 2}, {0, 3}, {0, 2}, {0, 1}},
		{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
		{{0, 1, 2, 3}},
	},
}

func checkSimplex(g GeometryType) error {
	if !g.IsSimplex() {
		return fmt.Errorf("reference cell %v: %w", g, mberrors.ErrUnsupported)
	}
	return nil
}

// Vertices returns the reference vertex coordinates of a simplex.
func Vertices(g GeometryType) ([][]float64, error) {
	if err := checkSimplex(g); err != nil {
		return nil, err
	}
	d := g.Dimension()
	verts := make([][]float64, d+1)
	for v := range verts {
		verts[v] = make([]float64, d)
		if v > 0 {
			verts[v][v-1] = 1
		}
	}
	return verts, nil
}

// Topology returns the vertex lists of every sub-entity, indexed
// [dim][entity].
func Topology(g GeometryType) ([][][]int, error) {
	if err := checkSimplex(g); err != nil {
		return nil, err
	}
	return simplexTopology[g], nil
}

// SubEntities lists every sub-entity of the cell, dimensions ascending,
// the cell itself last.
func SubEntities(g GeometryType) ([]Entity, error) {
	top, err := Topology(g)
	if err != nil {
		return nil, err
	}
	var out []Entity
	for dim, ents := range top {
		for id := range ents {
			out = append(out, Entity{Dim: dim, ID: id})
		}
	}
	return out, nil
}

// MakePoints returns the equispaced lattice points of the given order that
// lie strictly inside the sub-entity. A vertex yields itself.
func MakePoints(g GeometryType, dim, entity, order int) ([][]float64, error) {
	top, err := Topology(g)
	if err != nil {
		return nil, err
	}
	if dim < 0 || dim >= len(top) || entity < 0 || entity >= len(top[dim]) {
		return nil, fmt.Errorf("reference cell %v has no entity (%d,%d)", g, dim, entity)
	}
	verts, _ := Vertices(g)
	ids := top[dim][entity]
	if dim == 0 {
		return [][]float64{append([]float64(nil), verts[ids[0]]...)}, nil
	}
	if order < 1 {
		return nil, nil
	}
	v0 := verts[ids[0]]
	var pts [][]float64
	for _, tuple := range latticeTuples(dim, 1, order-1) {
		p := append([]float64(nil), v0...)
		for k, i := range tuple {
			vk := verts[ids[k+1]]
			w := float64(i) / float64(order)
			for c := range p {
				p[c] += w * (vk[c] - v0[c])
			}
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// BoundaryPoints concatenates MakePoints over every sub-entity below the
// cell dimension, in SubEntities order.
func BoundaryPoints(g GeometryType, order int) ([][]float64, error) {
	return entityPoints(g, order, g.Dimension()-1)
}

// LagrangeNodes returns the nodes of the equispaced Lagrange element of the
// given order, laid out entity by entity: vertices, edges, faces, interior.
// Order zero yields the centroid.
func LagrangeNodes(g GeometryType, order int) ([][]float64, error) {
	if order == 0 {
		c, err := Centroid(g)
		if err != nil {
			return nil, err
		}
		return [][]float64{c}, nil
	}
	return entityPoints(g, order, g.Dimension())
}

func entityPoints(g GeometryType, order, maxDim int) ([][]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("order %d: %w", order, mberrors.ErrInvalidOrder)
	}
	ents, err := SubEntities(g)
	if err != nil {
		return nil, err
	}
	var pts [][]float64
	for _, e := range ents {
		if e.Dim > maxDim {
			continue
		}
		p, err := MakePoints(g, e.Dim, e.ID, order)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p...)
	}
	return pts, nil
}

// LatticePoints returns every lattice point of the given order in
// lexicographic order of the integer coordinates. Order zero yields the
// centroid.
func LatticePoints(g GeometryType, order int) ([][]float64, error) {
	if err := checkSimplex(g); err != nil {
		return nil, err
	}
	if order == 0 {
		c, _ := Centroid(g)
		return [][]float64{c}, nil
	}
	if order < 0 {
		return nil, fmt.Errorf("order %d: %w", order, mberrors.ErrInvalidOrder)
	}
	var pts [][]float64
	for _, tuple := range latticeTuples(g.Dimension(), 0, order) {
		p := make([]float64, len(tuple))
		for k, i := range tuple {
			p[k] = float64(i) / float64(order)
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// NumLagrangeNodes returns binomial(order+d, d).
func NumLagrangeNodes(g GeometryType, order int) int {
	d := g.Dimension()
	n := 1
	for k := 1; k <= d; k++ {
		n = n * (order + k) / k
	}
	return n
}

// Centroid returns the reference centroid.
func Centroid(g GeometryType) ([]float64, error) {
	if err := checkSimplex(g); err != nil {
		return nil, err
	}
	d := g.Dimension()
	c := make([]float64, d)
	for k := range c {
		c[k] = 1 / float64(d+1)
	}
	return c, nil
}

// Barycentric returns the barycentric coordinates of a reference point.
func Barycentric(xi []float64) []float64 {
	lam := make([]float64, len(xi)+1)
	lam[0] = 1
	for k, x := range xi {
		lam[0] -= x
		lam[k+1] = x
	}
	return lam
}

// AffineMap maps a reference point through the straight-sided simplex with
// the given vertex coordinates.
func AffineMap(verts [][]float64, xi []float64) []float64 {
	lam := Barycentric(xi)
	out := make([]float64, len(verts[0]))
	for v, w := range lam {
		for c := range out {
			out[c] += w * verts[v][c]
		}
	}
	return out
}

// latticeTuples enumerates integer tuples of length d with entries >= min
// and sum <= total, first entry varying slowest.
func latticeTuples(d, min, total int) [][]int {
	if d == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for i := min; i <= total-(d-1)*min; i++ {
		for _, rest := range latticeTuples(d-1, min, total-i) {
			out = append(out, append([]int{i}, rest...))
		}
	}
	return out
}

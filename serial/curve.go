package serial

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

// moveTol is the displacement below which a projected node counts as
// unmoved.
const moveTol = 1e-12

// Curve builds an order-`order` geometry for every element with a boundary
// facet on the mesh geometry. The lattice nodes of such an element lying on
// a boundary sub-entity are projected onto the geometry; an element is
// marked Curved only if some node actually moved. Order one, or a mesh
// without geometry, leaves every element straight.
func (m *Mesh) Curve(order int) error {
	if order < 1 {
		return fmt.Errorf("curve order %d: %w", order, mberrors.ErrInvalidOrder)
	}
	m.straighten()
	m.curveOrder = order
	if order == 1 || m.Geometry == nil {
		return nil
	}
	for i, el := range m.elements {
		if !el.Type.IsSimplex() {
			return fmt.Errorf("curve element %d of type %v: %w", i, el.Type, mberrors.ErrUnsupported)
		}
	}

	onBoundary := m.boundarySubEntities()
	lattice := make(map[reference.GeometryType][][]float64)
	for _, el := range m.elements {
		pts, ok := lattice[el.Type]
		if !ok {
			var err error
			if pts, err = reference.LatticePoints(el.Type, order); err != nil {
				return err
			}
			lattice[el.Type] = pts
		}
		verts := m.VertexCoords(el)
		nodes := make([][]float64, len(pts))
		moved := false
		for n, xi := range pts {
			nodes[n] = reference.AffineMap(verts, xi)
			var support []int
			for v, l := range reference.Barycentric(xi) {
				if l > geometryTol {
					support = append(support, el.Vertices[v])
				}
			}
			if len(support) < 2 || !onBoundary[keyOf(support...)] {
				continue
			}
			p := m.Geometry.Project(nodes[n])
			if distance(p, nodes[n]) > moveTol {
				moved = true
			}
			nodes[n] = p
		}
		if moved {
			el.Curved = true
			el.nodes = nodes
		}
	}
	return nil
}

// boundarySubEntities collects every sub-simplex, edges and up, of the
// boundary facets whose vertices all lie on the geometry.
func (m *Mesh) boundarySubEntities() map[simplexKey]bool {
	out := make(map[simplexKey]bool)
	for key, n := range m.facetAdjacency() {
		if n != 1 {
			continue
		}
		var f []int
		for _, v := range key {
			if v >= 0 {
				f = append(f, v)
			}
		}
		onGeom := true
		for _, v := range f {
			if !m.Geometry.Contains(m.Points[v], geometryTol) {
				onGeom = false
				break
			}
		}
		if !onGeom {
			continue
		}
		out[key] = true
		if len(f) == 3 {
			out[keyOf(f[0], f[1])] = true
			out[keyOf(f[1], f[2])] = true
			out[keyOf(f[0], f[2])] = true
		}
	}
	return out
}

// CalcElementMapping maps reference points through every element's
// geometry: affine for straight elements, interpolation of the curved nodes
// otherwise. The result is indexed [element][point][coordinate].
func (m *Mesh) CalcElementMapping(refPts [][]float64) ([][][]float64, error) {
	bases := make(map[reference.GeometryType]*reference.LagrangeBasis)
	out := make([][][]float64, len(m.elements))
	for i, el := range m.elements {
		if !el.Type.IsSimplex() {
			return nil, fmt.Errorf("element mapping of %v element %d: %w", el.Type, i, mberrors.ErrUnsupported)
		}
		for n, xi := range refPts {
			if len(xi) != el.Type.Dimension() {
				return nil, fmt.Errorf("reference point %d has %d coordinates for a %v element",
					n, len(xi), el.Type)
			}
		}
		mapped := make([][]float64, len(refPts))
		if el.Curved {
			lb, ok := bases[el.Type]
			if !ok {
				pts, err := reference.LatticePoints(el.Type, m.curveOrder)
				if err != nil {
					return nil, err
				}
				if lb, err = reference.NewLagrangeBasis(el.Type, m.curveOrder, pts); err != nil {
					return nil, err
				}
				bases[el.Type] = lb
			}
			for n, xi := range refPts {
				mapped[n] = lb.Interpolate(el.nodes, xi)
			}
		} else {
			verts := m.VertexCoords(el)
			for n, xi := range refPts {
				mapped[n] = reference.AffineMap(verts, xi)
			}
		}
		out[i] = mapped
	}
	return out, nil
}

package serial

import (
	"math"
	"testing"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkConforming verifies that every edge of a triangle mesh is shared by
// at most two triangles and that no hanging node sits on an edge.
func checkConforming(t *testing.T, m *Mesh) {
	t.Helper()
	edges := make(map[[2]int]int)
	for _, el := range m.Elements() {
		v := el.Vertices
		for i := 0; i < 3; i++ {
			a, b := v[i], v[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			edges[[2]int{a, b}]++
		}
	}
	for e, n := range edges {
		if n > 2 {
			t.Fatalf("edge %v shared by %d triangles", e, n)
		}
		a, b := m.Points[e[0]], m.Points[e[1]]
		for p, q := range m.Points {
			if p == e[0] || p == e[1] {
				continue
			}
			if onSegment(a, b, q) {
				t.Fatalf("hanging node %d on edge %v", p, e)
			}
		}
	}
}

func onSegment(a, b, q []float64) bool {
	cross := (b[0]-a[0])*(q[1]-a[1]) - (b[1]-a[1])*(q[0]-a[0])
	if math.Abs(cross) > 1e-12 {
		return false
	}
	dot := (q[0]-a[0])*(b[0]-a[0]) + (q[1]-a[1])*(b[1]-a[1])
	l2 := (b[0]-a[0])*(b[0]-a[0]) + (b[1]-a[1])*(b[1]-a[1])
	return dot > 1e-12 && dot < l2-1e-12
}

func totalArea(m *Mesh) float64 {
	area := 0.0
	for _, el := range m.Elements() {
		p := m.VertexCoords(el)
		area += 0.5 * math.Abs((p[1][0]-p[0][0])*(p[2][1]-p[0][1])-(p[2][0]-p[0][0])*(p[1][1]-p[0][1]))
	}
	return area
}

func TestAddElementValidation(t *testing.T) {
	m := NewMesh(2)
	_, err := m.AddPoint(0, 0, 0)
	assert.Error(t, err)
	for _, p := range [][]float64{{0, 0}, {1, 0}, {0, 1}} {
		_, err := m.AddPoint(p...)
		require.NoError(t, err)
	}
	_, err = m.AddElement(reference.Tri, 0, 1, 3)
	assert.Error(t, err)
	_, err = m.AddElement(reference.Tet, 0, 1, 2, 0)
	assert.Error(t, err)
	_, err = m.AddElement(reference.Tri, 0, 1)
	assert.Error(t, err)
	el, err := m.AddElement(reference.Tri, 0, 1, 2)
	require.NoError(t, err)
	assert.False(t, el.Refine)
	assert.Len(t, m.Elements2D(), 1)
	assert.Nil(t, m.Elements3D())
}

func TestRefineUniform(t *testing.T) {
	m := NewRectangle(2, 2, 1, 1)
	require.Equal(t, 8, m.NumElements())
	require.NoError(t, m.Refine(false))
	assert.Equal(t, 32, m.NumElements())
	assert.Equal(t, 25, m.NumPoints())
	assert.InDelta(t, 1.0, totalArea(m), 1e-14)
	checkConforming(t, m)
}

func TestRefineWithoutMarksIsNoop(t *testing.T) {
	m := NewRectangle(3, 2, 1, 1)
	before := m.NumElements()
	require.NoError(t, m.Refine(true))
	assert.Equal(t, before, m.NumElements())
	assert.Equal(t, 12, m.NumPoints())
}

func TestRefineSingleMarkIsConforming(t *testing.T) {
	m := NewRectangle(3, 3, 1, 1)
	m.Elements()[8].Refine = true
	require.NoError(t, m.Refine(true))
	// One red split (+3) and three green bisections (+1 each).
	assert.Equal(t, 18+3+3, m.NumElements())
	assert.Equal(t, 0, m.NumMarked())
	assert.InDelta(t, 1.0, totalArea(m), 1e-14)
	checkConforming(t, m)
}

func TestRefineClosurePromotesTwoEdgeTriangles(t *testing.T) {
	m := NewRectangle(4, 4, 1, 1)
	for i, el := range m.Elements() {
		el.Refine = i%5 == 0
	}
	require.NoError(t, m.Refine(true))
	assert.InDelta(t, 1.0, totalArea(m), 1e-14)
	checkConforming(t, m)
}

func TestRefineProjectsBoundaryMidpoints(t *testing.T) {
	m := NewDisk(6, 1)
	require.NoError(t, m.Refine(false))
	assert.Equal(t, 24, m.NumElements())
	onCircle := 0
	for _, p := range m.Points {
		if m.Geometry.Contains(p, 1e-12) {
			onCircle++
		}
	}
	assert.Equal(t, 12, onCircle)
}

func TestRefineRejectsUnsupportedMeshes(t *testing.T) {
	err := NewBall(1).Refine(false)
	assert.ErrorIs(t, err, mberrors.ErrUnsupportedDimension)
	err = NewQuadRectangle(1, 1, 1, 1).Refine(false)
	assert.ErrorIs(t, err, mberrors.ErrUnsupported)
}

func TestCurveOrderOneIsStraight(t *testing.T) {
	m := NewDisk(8, 1)
	require.NoError(t, m.Curve(1))
	for _, el := range m.Elements() {
		assert.False(t, el.Curved)
	}
	assert.ErrorIs(t, m.Curve(0), mberrors.ErrInvalidOrder)
}

func TestCurveDisk(t *testing.T) {
	m := NewDisk(8, 1)
	require.NoError(t, m.Curve(3))
	for _, el := range m.Elements() {
		require.True(t, el.Curved)
	}
	refPts, err := reference.MakePoints(reference.Tri, 1, 0, 3)
	require.NoError(t, err)
	mapped, err := m.CalcElementMapping(refPts)
	require.NoError(t, err)
	// Edge 0 of every fan triangle is its boundary edge.
	for _, pts := range mapped {
		for _, p := range pts {
			assert.InDelta(t, 1.0, math.Hypot(p[0], p[1]), 1e-12)
		}
	}
	// Interior edges stay straight.
	refPts, _ = reference.MakePoints(reference.Tri, 1, 2, 3)
	mapped, err = m.CalcElementMapping(refPts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, math.Hypot(mapped[0][0][0], mapped[0][0][1]), 1e-12)
}

func TestCurveStraightBoundaryLeavesElementsStraight(t *testing.T) {
	m := NewRectangle(2, 2, 1, 1)
	m.Geometry = Circle{Center: [2]float64{0.5, 0.5}, Radius: 0.5 * math.Sqrt2}
	require.NoError(t, m.Curve(2))
	curved := 0
	for _, el := range m.Elements() {
		if el.Curved {
			curved++
		}
	}
	// Only the corners lie on the circle, no boundary edge does.
	assert.Zero(t, curved)
}

func TestCurveBall(t *testing.T) {
	m := NewBall(2)
	require.NoError(t, m.Curve(2))
	refPts, err := reference.BoundaryPoints(reference.Tet, 2)
	require.NoError(t, err)
	mapped, err := m.CalcElementMapping(refPts)
	require.NoError(t, err)
	for e, el := range m.Elements() {
		require.True(t, el.Curved)
		// Face 0 is opposite the centre.
		for n, xi := range refPts {
			if reference.Barycentric(xi)[0] < 1e-14 {
				p := mapped[e][n]
				assert.InDelta(t, 2.0, math.Sqrt(p[0]*p[0]+p[1]*p[1]+p[2]*p[2]), 1e-12)
			}
		}
	}
}

func TestRefineDropsCurving(t *testing.T) {
	m := NewDisk(6, 1)
	require.NoError(t, m.Curve(2))
	m.Elements()[0].Refine = true
	require.NoError(t, m.Refine(true))
	assert.Zero(t, m.CurveOrder())
	for _, el := range m.Elements() {
		assert.False(t, el.Curved)
		assert.Nil(t, el.CurvedNodes())
	}
}

func TestSplit2Tets(t *testing.T) {
	m := NewBox(2, 1, 1, 2, 1, 1)
	require.NoError(t, m.Split2Tets())
	assert.Equal(t, 12, m.NumElements())
	vol := 0.0
	for _, el := range m.Elements() {
		require.Equal(t, reference.Tet, el.Type)
		p := m.VertexCoords(el)
		vol += math.Abs(det3(sub(p[1], p[0]), sub(p[2], p[0]), sub(p[3], p[0]))) / 6
	}
	assert.InDelta(t, 2.0, vol, 1e-14)

	q := NewQuadRectangle(2, 2, 1, 1)
	require.NoError(t, q.Split2Tets())
	assert.Equal(t, 8, q.NumElements())
	assert.Equal(t, []reference.GeometryType{reference.Tri}, q.ElementTypes())
	assert.InDelta(t, 1.0, totalArea(q), 1e-14)

	assert.ErrorIs(t, NewInterval(2, 1).Split2Tets(), mberrors.ErrUnsupportedDimension)
}

// checkSharedFace verifies that a quadrilateral face shared by two cells is
// cut the same way from both sides: exactly two triangles, each bounding two
// tetrahedra.
func checkSharedFace(t *testing.T, m *Mesh, face ...int) {
	t.Helper()
	in := make(map[int]bool)
	for _, v := range face {
		in[v] = true
	}
	n := 0
	for key, count := range m.facetAdjacency() {
		if in[key[0]] && in[key[1]] && in[key[2]] {
			assert.Equal(t, 2, count, "facet %v", key)
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func tetVolume(m *Mesh) float64 {
	vol := 0.0
	for _, el := range m.Elements() {
		p := m.VertexCoords(el)
		vol += math.Abs(det3(sub(p[1], p[0]), sub(p[2], p[0]), sub(p[3], p[0]))) / 6
	}
	return vol
}

func TestSplitPrismsConformAcrossOrderings(t *testing.T) {
	m := NewMesh(3)
	for _, z := range []float64{0, 1} {
		for _, xy := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			_, err := m.AddPoint(xy[0], xy[1], z)
			require.NoError(t, err)
		}
	}
	_, err := m.AddElement(reference.Prism, 0, 1, 2, 4, 5, 6)
	require.NoError(t, err)
	// the neighbour starts from a different corner of the shared face
	_, err = m.AddElement(reference.Prism, 3, 2, 1, 7, 6, 5)
	require.NoError(t, err)

	require.NoError(t, m.Split2Tets())
	assert.Equal(t, 6, m.NumElements())
	assert.InDelta(t, 1.0, tetVolume(m), 1e-14)
	checkSharedFace(t, m, 1, 2, 5, 6)
}

func TestSplitPyramidsConformAcrossOrderings(t *testing.T) {
	m := NewMesh(3)
	for _, p := range [][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0.5, 0.5, 1}, {0.5, 0.5, -1}} {
		_, err := m.AddPoint(p...)
		require.NoError(t, err)
	}
	_, err := m.AddElement(reference.Pyramid, 0, 1, 2, 3, 4)
	require.NoError(t, err)
	_, err = m.AddElement(reference.Pyramid, 1, 2, 3, 0, 5)
	require.NoError(t, err)

	require.NoError(t, m.Split2Tets())
	assert.Equal(t, 4, m.NumElements())
	assert.InDelta(t, 2.0/3, tetVolume(m), 1e-14)
	checkSharedFace(t, m, 0, 1, 2, 3)
}

func sub(a, b []float64) []float64 {
	return []float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func det3(a, b, c []float64) float64 {
	return a[0]*(b[1]*c[2]-b[2]*c[1]) - a[1]*(b[0]*c[2]-b[2]*c[0]) + a[2]*(b[0]*c[1]-b[1]*c[0])
}

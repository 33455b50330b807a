package reference

import (
	"math"
	"testing"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monomialValue evaluates X^i * Y^j * Z^k at a point
func monomialValue(p []float64, exps ...int) float64 {
	result := 1.0
	for d, e := range exps {
		result *= pow(p[d], e)
	}
	return result
}

func TestNumLagrangeNodes(t *testing.T) {
	cases := []struct {
		g     GeometryType
		order int
		want  int
	}{
		{Line, 3, 4},
		{Tri, 0, 1},
		{Tri, 1, 3},
		{Tri, 2, 6},
		{Tri, 3, 10},
		{Tet, 1, 4},
		{Tet, 2, 10},
		{Tet, 3, 20},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NumLagrangeNodes(tc.g, tc.order), "%v order %d", tc.g, tc.order)
		if tc.order > 0 {
			nodes, err := LagrangeNodes(tc.g, tc.order)
			require.NoError(t, err)
			assert.Len(t, nodes, tc.want)
			lattice, err := LatticePoints(tc.g, tc.order)
			require.NoError(t, err)
			assert.Len(t, lattice, tc.want)
		}
	}
}

func TestMakePointsOnTriangleEdges(t *testing.T) {
	// Edge 0 of the UFC triangle joins (1,0) and (0,1).
	pts, err := MakePoints(Tri, 1, 0, 3)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 1.0 / 3}, pts[0], 1e-15)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 2.0 / 3}, pts[1], 1e-15)

	// Order 2 has no interior points on the cell.
	pts, err = MakePoints(Tri, 2, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, pts)

	pts, err = MakePoints(Tri, 0, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}}, pts)

	_, err = MakePoints(Tri, 1, 3, 2)
	assert.Error(t, err)
	_, err = MakePoints(Rectangle, 1, 0, 2)
	assert.ErrorIs(t, err, mberrors.ErrUnsupported)
}

func TestBoundaryPointsLieOnBoundary(t *testing.T) {
	for _, g := range []GeometryType{Tri, Tet} {
		for order := 1; order <= 4; order++ {
			pts, err := BoundaryPoints(g, order)
			require.NoError(t, err)
			interior := 0
			if order > g.Dimension() {
				interior = NumLagrangeNodes(g, order-g.Dimension()-1)
			}
			assert.Equal(t, NumLagrangeNodes(g, order)-interior, len(pts), "%v order %d", g, order)
			for _, p := range pts {
				lam := Barycentric(p)
				minLam := math.Inf(1)
				for _, l := range lam {
					minLam = math.Min(minLam, l)
				}
				assert.InDelta(t, 0, minLam, 1e-14, "point %v is not on the boundary", p)
			}
		}
	}
	_, err := BoundaryPoints(Tri, 0)
	assert.ErrorIs(t, err, mberrors.ErrInvalidOrder)
}

func TestLagrangeNodesMatchLatticeAsSets(t *testing.T) {
	for _, g := range []GeometryType{Tri, Tet} {
		nodes, err := LagrangeNodes(g, 3)
		require.NoError(t, err)
		lattice, err := LatticePoints(g, 3)
		require.NoError(t, err)
		for _, p := range lattice {
			found := 0
			for _, q := range nodes {
				if dist(p, q) < 1e-13 {
					found++
				}
			}
			assert.Equal(t, 1, found, "%v lattice point %v", g, p)
		}
		// Entity layout starts with the vertices.
		verts, _ := Vertices(g)
		for v := range verts {
			assert.InDeltaSlice(t, verts[v], nodes[v], 1e-15)
		}
	}
}

func TestLagrangeBasisIsNodal(t *testing.T) {
	for _, g := range []GeometryType{Line, Tri, Tet} {
		for order := 1; order <= 4; order++ {
			nodes, err := LagrangeNodes(g, order)
			require.NoError(t, err)
			lb, err := NewLagrangeBasis(g, order, nodes)
			require.NoError(t, err)
			for i, p := range nodes {
				w := lb.Eval(p)
				for j := range w {
					want := 0.0
					if i == j {
						want = 1
					}
					if math.Abs(w[j]-want) > 1e-10 {
						t.Fatalf("%v order %d: basis %d at node %d = %g, want %g", g, order, j, i, w[j], want)
					}
				}
			}
			// Partition of unity away from the nodes.
			c, _ := Centroid(g)
			sum := 0.0
			for _, wi := range lb.Eval(c) {
				sum += wi
			}
			assert.InDelta(t, 1, sum, 1e-11)
		}
	}
}

func TestLagrangeBasisReproducesPolynomials(t *testing.T) {
	nodes, err := LatticePoints(Tri, 3)
	require.NoError(t, err)
	lb, err := NewLagrangeBasis(Tri, 3, nodes)
	require.NoError(t, err)

	values := make([][]float64, len(nodes))
	for n, p := range nodes {
		values[n] = []float64{monomialValue(p, 2, 1), monomialValue(p, 0, 3)}
	}
	xi := []float64{0.21, 0.37}
	got := lb.Interpolate(values, xi)
	assert.InDelta(t, monomialValue(xi, 2, 1), got[0], 1e-12)
	assert.InDelta(t, monomialValue(xi, 0, 3), got[1], 1e-12)

	_, err = NewLagrangeBasis(Tri, 3, nodes[:5])
	assert.Error(t, err)
}

func TestJacobiOrthonormality(t *testing.T) {
	// Gauss-Legendre with 5 points integrates degree 9 exactly.
	x := []float64{-0.9061798459386640, -0.5384693101056831, 0, 0.5384693101056831, 0.9061798459386640}
	w := []float64{0.2369268850561891, 0.4786286704993665, 0.5688888888888889, 0.4786286704993665, 0.2369268850561891}
	for n := 0; n <= 4; n++ {
		for m := 0; m <= 4; m++ {
			pn, pm := JacobiP(x, 0, 0, n), JacobiP(x, 0, 0, m)
			ip := 0.0
			for i := range x {
				ip += w[i] * pn[i] * pm[i]
			}
			want := 0.0
			if n == m {
				want = 1
			}
			assert.InDelta(t, want, ip, 1e-12, "<P%d,P%d>", n, m)
		}
	}
}

func TestAffineMap(t *testing.T) {
	verts := [][]float64{{1, 1}, {3, 1}, {1, 2}}
	assert.InDeltaSlice(t, []float64{2, 1.5}, AffineMap(verts, []float64{0.5, 0.5}), 1e-15)
	assert.InDeltaSlice(t, []float64{1, 1}, AffineMap(verts, []float64{0, 0}), 1e-15)
	assert.InDeltaSlice(t, []float64{0.5, 0.25, 0.25}, Barycentric([]float64{0.25, 0.25}), 1e-15)
}

func TestGeometryTypeString(t *testing.T) {
	assert.Equal(t, "Tet", Tet.String())
	assert.Equal(t, "GeometryType(42)", GeometryType(42).String())
	g, err := SimplexOfDim(2)
	require.NoError(t, err)
	assert.Equal(t, Tri, g)
	_, err = SimplexOfDim(4)
	assert.Error(t, err)
}

func dist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(s)
}

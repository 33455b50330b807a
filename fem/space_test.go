package fem

import (
	"testing"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionSpaceLayout(t *testing.T) {
	m := build(t, serial.NewRectangle(2, 1, 2, 1), quiet())

	cg, err := NewVectorFunctionSpace(m, CG, 1)
	require.NoError(t, err)
	assert.Equal(t, m.Topology.NumVertices(), cg.NodeCount())
	assert.Equal(t, 2, cg.ValueSize)

	dg, err := NewVectorFunctionSpace(m, DG, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, dg.NodesPerCell())
	assert.Equal(t, 6*m.NumCells(), dg.NodeCount())
	for off := 0; off < m.NumCells(); off++ {
		for j, n := range dg.CellNodes(off) {
			assert.Equal(t, 6*off+j, n)
		}
	}

	_, err = NewFunctionSpace(m, CG, 2)
	assert.ErrorIs(t, err, mberrors.ErrUnsupported)
}

func TestInterpolateLinearField(t *testing.T) {
	m := build(t, serial.NewRectangle(2, 2, 1, 1), quiet())
	f := straightField(t, m, 3)
	// every node interpolates the vertex coordinates affinely, so the DG
	// field holds the physical position of its reference node
	ref := f.Space().ReferenceNodes()
	for cell := 0; cell < m.NumCells(); cell++ {
		off := m.Topology.CellNumbering.Offset(cell)
		verts := m.Topology.CellCoords(cell)
		for j, v := range f.CellValues(off) {
			x, y := ref[j][0], ref[j][1]
			want0 := verts[0][0] + x*(verts[1][0]-verts[0][0]) + y*(verts[2][0]-verts[0][0])
			want1 := verts[0][1] + x*(verts[1][1]-verts[0][1]) + y*(verts[2][1]-verts[0][1])
			assert.InDelta(t, want0, v[0], 1e-14)
			assert.InDelta(t, want1, v[1], 1e-14)
		}
	}

	mark := dg0(t, m)
	assert.ErrorIs(t, f.Interpolate(mark), mberrors.ErrUnsupported)
	other := build(t, serial.NewRectangle(2, 2, 1, 1), quiet())
	assert.ErrorIs(t, f.Interpolate(other.Coordinates), mberrors.ErrTopologyMismatch)
}

func TestPointMatcher(t *testing.T) {
	pm := PointMatcher{Decimals: DefaultMatchDecimals}
	ref := [][]float64{{0, 0}, {1, 0}, {0.5, 0.5}}
	targets := [][]float64{{0.5 + 1e-11, 0.5}, {-1e-12, 0}, {1, 0}}
	perm, err := pm.Permutation(ref, targets)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, perm)

	_, err = pm.Permutation([][]float64{{0, 0}, {1e-10, 0}}, targets)
	assert.ErrorIs(t, err, mberrors.ErrAmbiguousMatch)

	_, err = pm.Permutation(ref, [][]float64{{0.25, 0}})
	assert.ErrorIs(t, err, mberrors.ErrUnmatchedPoint)

	coarse := PointMatcher{Decimals: 2}
	perm, err = coarse.Permutation(ref, [][]float64{{1.001, 0.002}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, perm)
}

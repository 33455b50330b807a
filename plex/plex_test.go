package plex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitSquare returns the nx*nx triangulation of the unit square with the
// (i,j)-(i+1,j+1) diagonals.
func unitSquare(nx int) *Plex {
	p := &Plex{Dim: 2, CoordDim: 2, CellType: reference.Tri}
	id := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j <= nx; j++ {
		for i := 0; i <= nx; i++ {
			p.Coords = append(p.Coords, []float64{float64(i) / float64(nx), float64(j) / float64(nx)})
		}
	}
	for j := 0; j < nx; j++ {
		for i := 0; i < nx; i++ {
			// second triangle listed in descending orientation on purpose
			p.Cells = append(p.Cells, []int{id(i, j), id(i+1, j), id(i+1, j+1)})
			p.Cells = append(p.Cells, []int{id(i, j+1), id(i+1, j+1), id(i, j)})
		}
	}
	return p
}

func unitTet() *Plex {
	return &Plex{Dim: 3, CoordDim: 3, CellType: reference.Tet,
		Cells:  [][]int{{0, 1, 2, 3}},
		Coords: [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

func polygonArea(pts [][]float64) float64 {
	a := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return math.Abs(a) / 2
}

func tetVolume(p [][]float64) float64 {
	a := []float64{p[1][0] - p[0][0], p[1][1] - p[0][1], p[1][2] - p[0][2]}
	b := []float64{p[2][0] - p[0][0], p[2][1] - p[0][1], p[2][2] - p[0][2]}
	c := []float64{p[3][0] - p[0][0], p[3][1] - p[0][1], p[3][2] - p[0][2]}
	return math.Abs(a[0]*(b[1]*c[2]-b[2]*c[1])-a[1]*(b[0]*c[2]-b[2]*c[0])+a[2]*(b[0]*c[1]-b[1]*c[0])) / 6
}

func TestSection(t *testing.T) {
	s, err := NewSection([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Offset(0))
	assert.Equal(t, 0, s.Point(2))
	assert.False(t, s.IsIdentity())
	assert.True(t, Identity(4).IsIdentity())

	_, err = NewSection([]int{0, 0})
	assert.Error(t, err)
	_, err = NewSection([]int{0, 2})
	assert.Error(t, err)
}

func TestRCMIsPermutation(t *testing.T) {
	p := unitSquare(4)
	s := CellNumbering(p, NumberRCM)
	offsets := make([]int, s.Len())
	for c := 0; c < s.Len(); c++ {
		offsets[c] = s.Offset(c)
		assert.Equal(t, c, s.Point(s.Offset(c)))
	}
	sort.Ints(offsets)
	for i, off := range offsets {
		require.Equal(t, i, off)
	}
	assert.False(t, s.IsIdentity())
	assert.True(t, CellNumbering(p, NumberIdentity).IsIdentity())
}

func TestRCMAdjacency(t *testing.T) {
	adj := cellAdjacency(unitSquare(1))
	assert.Equal(t, [][]int{{1}, {0}}, adj)
}

func TestDistribute(t *testing.T) {
	base := unitSquare(3)
	n := base.NumCells()
	eToP := make([]int, n)
	for i := range eToP {
		eToP[i] = i % 3
	}
	w := comm.NewWorld(3)
	err := w.Run(context.Background(), func(ctx context.Context, c comm.Comm) error {
		var b *Plex
		var e []int
		if c.Rank() == 0 {
			b, e = base, eToP
		}
		top, err := Distribute(c, b, e, NumberRCM)
		if err != nil {
			return err
		}
		if err := top.Validate(); err != nil {
			return err
		}
		if comm.SumInt(c, top.NumCells()) != n {
			return fmt.Errorf("cells lost in distribution")
		}
		for j := 0; j < top.NumCells(); j++ {
			baseCell := top.SFBC.Leaf(j).Index
			if baseCell != c.Rank()+3*j {
				return fmt.Errorf("rank %d local %d maps to base %d", c.Rank(), j, baseCell)
			}
			// same vertices, ascending order
			got := top.CellCoords(j)
			want := base.CellCoords(baseCell)
			sorted := append([]int(nil), base.Cells[baseCell]...)
			sort.Ints(sorted)
			for k := range got {
				if got[k][0] != base.Coords[sorted[k]][0] || got[k][1] != base.Coords[sorted[k]][1] {
					return fmt.Errorf("cell %d vertex %d is %v", baseCell, k, got[k])
				}
			}
			if math.Abs(polygonArea(got)-polygonArea(want)) > 1e-15 {
				return fmt.Errorf("cell %d changed area", baseCell)
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestDistributeSingleWorkerKeepsOrder(t *testing.T) {
	base := unitSquare(2)
	top, err := Distribute(comm.Self(), base, make([]int, base.NumCells()), NumberIdentity)
	require.NoError(t, err)
	require.Equal(t, base.NumCells(), top.NumCells())
	for j := 0; j < top.NumCells(); j++ {
		assert.Equal(t, j, top.SFBC.Leaf(j).Index)
	}
	// The descending second triangle is re-oriented.
	assert.Equal(t, []int{0, 3, 4}, top.Cells[1])
}

func TestDistributeRejectsBadPartition(t *testing.T) {
	base := unitSquare(1)
	_, err := Distribute(comm.Self(), base, []int{0, 1}, NumberIdentity)
	assert.Error(t, err)
	_, err = Distribute(comm.Self(), base, []int{0}, NumberIdentity)
	assert.Error(t, err)
}

func TestRefineToBox(t *testing.T) {
	tr, err := TransformByName("refine_to_box")
	require.NoError(t, err)
	base := unitSquare(2)
	tr.SetDM(base)
	require.NoError(t, tr.SetUp())
	out, err := tr.Apply()
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.Equal(t, reference.Rectangle, out.CellType)
	assert.Equal(t, 3*base.NumCells(), out.NumCells())
	// 9 vertices + 16 edges + 8 centroids
	assert.Equal(t, 33, out.NumVertices())
	area := 0.0
	for c := range out.Cells {
		area += polygonArea(out.CellCoords(c))
	}
	assert.InDelta(t, 1.0, area, 1e-14)

	tr.SetDM(unitTet())
	hexes, err := tr.Apply()
	require.NoError(t, err)
	assert.Equal(t, reference.Hex, hexes.CellType)
	assert.Equal(t, 4, hexes.NumCells())
	// 4 vertices + 6 edges + 4 faces + 1 centroid
	assert.Equal(t, 15, hexes.NumVertices())
}

func TestRefineRegular(t *testing.T) {
	tr, err := TransformByName("regular")
	require.NoError(t, err)
	tr.SetDM(unitTet())
	out, err := tr.Apply()
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.Equal(t, 8, out.NumCells())
	assert.Equal(t, 10, out.NumVertices())
	vol := 0.0
	for c := range out.Cells {
		v := tetVolume(out.CellCoords(c))
		assert.InDelta(t, 1.0/48, v, 1e-15)
		vol += v
	}
	assert.InDelta(t, 1.0/6, vol, 1e-15)

	tr.SetDM(unitSquare(1))
	tris, err := tr.Apply()
	require.NoError(t, err)
	assert.Equal(t, 8, tris.NumCells())
	assert.Equal(t, 9, tris.NumVertices())
}

func TestTransformErrors(t *testing.T) {
	_, err := TransformByName("twist")
	assert.ErrorIs(t, err, mberrors.ErrConfig)

	tr := &RefineToBox{}
	assert.Error(t, tr.SetUp())
	tr.SetDM(&Plex{Dim: 2, CoordDim: 2, CellType: reference.Rectangle})
	assert.ErrorIs(t, tr.SetUp(), mberrors.ErrUnsupported)
}

package plex

import (
	"fmt"
	"sort"

	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/reference"
	"github.com/notargets/meshbridge/sf"
)

// Topology is one worker's view of a distributed mesh.
type Topology struct {
	Comm comm.Comm
	*Plex

	// CellNumbering maps local cells to offsets in cell-ordered arrays
	CellNumbering *Section

	// SFBC has the base cells on worker 0 as roots and the local cells as
	// leaves; nil for a topology that was never distributed from a base.
	SFBC *sf.StarForest
}

// piece is the part of the base mesh shipped to one worker.
type piece struct {
	Dim, CoordDim int
	CellType      reference.GeometryType
	Cells         [][]int
	Coords        [][]float64
	BaseCells     []int
}

// Distribute sends each worker the cells of base assigned to it by eToP.
// base and eToP are read on worker 0 only. Cells keep ascending base order
// on every worker; simplex cells are re-oriented so that their vertices are
// ascending in base vertex numbering. Collective.
func Distribute(c comm.Comm, base *Plex, eToP []int, numbering NumberingStrategy) (*Topology, error) {
	var err error
	if c.Rank() == 0 {
		err = checkPartition(base, eToP, c.Size())
	}
	if err = comm.Agree(c, err); err != nil {
		return nil, err
	}

	if c.Rank() == 0 {
		for q := 0; q < c.Size(); q++ {
			c.Send(q, extractPiece(base, eToP, q))
		}
	}
	pc := c.Recv(0).(piece)

	local := &Plex{Dim: pc.Dim, CoordDim: pc.CoordDim, CellType: pc.CellType,
		Cells: pc.Cells, Coords: pc.Coords}
	leaves := make([]sf.Remote, len(pc.BaseCells))
	for j, b := range pc.BaseCells {
		leaves[j] = sf.Remote{Rank: 0, Index: b}
	}
	nroots := 0
	if c.Rank() == 0 {
		nroots = base.NumCells()
	}
	sfbc, err := sf.New(c, nroots, leaves)
	if err != nil {
		return nil, err
	}
	return &Topology{
		Comm:          c,
		Plex:          local,
		CellNumbering: CellNumbering(local, numbering),
		SFBC:          sfbc,
	}, nil
}

// FromLocal wraps an already distributed piece. Such a topology has no
// link back to a base mesh.
func FromLocal(c comm.Comm, p *Plex, numbering NumberingStrategy) (*Topology, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Topology{Comm: c, Plex: p, CellNumbering: CellNumbering(p, numbering)}, nil
}

func checkPartition(base *Plex, eToP []int, size int) error {
	if base == nil {
		return fmt.Errorf("distribute: no base plex on worker 0")
	}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("distribute: %w", err)
	}
	if len(eToP) != base.NumCells() {
		return fmt.Errorf("distribute: EToP length %d does not match %d cells", len(eToP), base.NumCells())
	}
	for cell, p := range eToP {
		if p < 0 || p >= size {
			return fmt.Errorf("distribute: cell %d assigned to partition %d of %d", cell, p, size)
		}
	}
	return nil
}

func extractPiece(base *Plex, eToP []int, rank int) piece {
	pc := piece{Dim: base.Dim, CoordDim: base.CoordDim, CellType: base.CellType}
	var used []int
	seen := make(map[int]bool)
	for cell, p := range eToP {
		if p != rank {
			continue
		}
		pc.BaseCells = append(pc.BaseCells, cell)
		for _, v := range base.Cells[cell] {
			if !seen[v] {
				seen[v] = true
				used = append(used, v)
			}
		}
	}
	sort.Ints(used)
	localOf := make(map[int]int, len(used))
	for l, v := range used {
		localOf[v] = l
		pc.Coords = append(pc.Coords, append([]float64(nil), base.Coords[v]...))
	}
	for _, cell := range pc.BaseCells {
		verts := append([]int(nil), base.Cells[cell]...)
		if base.CellType.IsSimplex() {
			sort.Ints(verts)
		}
		for k, v := range verts {
			verts[k] = localOf[v]
		}
		pc.Cells = append(pc.Cells, verts)
	}
	return pc
}

// Package plex holds the distributed cell complex: a worker's piece of the
// mesh as cells over local vertices, the numbering of those cells and the
// star forest tying them to the undistributed base mesh on worker 0.
package plex

import (
	"fmt"

	"github.com/notargets/meshbridge/reference"
)

// Plex is a mesh of cells of one type over a local vertex list.
type Plex struct {
	Dim      int // topological dimension
	CoordDim int
	CellType reference.GeometryType
	Cells    [][]int
	Coords   [][]float64
}

// NewEmpty returns a plex without cells, as held by workers that own no
// part of a mesh.
func NewEmpty(dim, coordDim int, cellType reference.GeometryType) *Plex {
	return &Plex{Dim: dim, CoordDim: coordDim, CellType: cellType}
}

func (p *Plex) NumCells() int    { return len(p.Cells) }
func (p *Plex) NumVertices() int { return len(p.Coords) }

// GetCoordinateDim mirrors the naming of the underlying DM interface.
func (p *Plex) GetCoordinateDim() int { return p.CoordDim }

// Validate checks vertex counts and references.
func (p *Plex) Validate() error {
	if p.CellType.Dimension() != p.Dim {
		return fmt.Errorf("plex of dimension %d with %v cells", p.Dim, p.CellType)
	}
	if p.CoordDim < p.Dim {
		return fmt.Errorf("coordinate dimension %d below topological dimension %d", p.CoordDim, p.Dim)
	}
	for v, x := range p.Coords {
		if len(x) != p.CoordDim {
			return fmt.Errorf("vertex %d has %d coordinates, want %d", v, len(x), p.CoordDim)
		}
	}
	nv := p.CellType.NumVertices()
	for c, verts := range p.Cells {
		if len(verts) != nv {
			return fmt.Errorf("cell %d has %d vertices, want %d", c, len(verts), nv)
		}
		for _, v := range verts {
			if v < 0 || v >= len(p.Coords) {
				return fmt.Errorf("cell %d references vertex %d of %d", c, v, len(p.Coords))
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Plex) Clone() *Plex {
	out := &Plex{Dim: p.Dim, CoordDim: p.CoordDim, CellType: p.CellType}
	out.Cells = make([][]int, len(p.Cells))
	for i, c := range p.Cells {
		out.Cells[i] = append([]int(nil), c...)
	}
	out.Coords = make([][]float64, len(p.Coords))
	for i, x := range p.Coords {
		out.Coords[i] = append([]float64(nil), x...)
	}
	return out
}

// CellCoords returns the vertex coordinates of cell c.
func (p *Plex) CellCoords(c int) [][]float64 {
	out := make([][]float64, len(p.Cells[c]))
	for i, v := range p.Cells[c] {
		out[i] = p.Coords[v]
	}
	return out
}

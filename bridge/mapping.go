// Package bridge converts between the serial mesh and the base plex that
// distribution starts from, keeping the cell correspondence in both
// directions.
package bridge

import (
	"fmt"

	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/plex"
	"github.com/notargets/meshbridge/reference"
	"github.com/notargets/meshbridge/serial"
)

// MeshMapping pairs a serial mesh with its base plex. Both are populated on
// worker 0 only; other workers hold an empty placeholder mesh and an empty
// plex of the same dimensions.
type MeshMapping struct {
	Comm   comm.Comm
	Serial *serial.Mesh
	Plex   *plex.Plex

	plexToSerial []int
	serialToPlex []int
}

type meta struct {
	Dim, CoordDim int
	CellType      reference.GeometryType
}

// NewMeshMapping converts the serial mesh held by worker 0 into a base
// plex. The mesh argument is ignored on other workers. Collective.
func NewMeshMapping(c comm.Comm, m *serial.Mesh) (*MeshMapping, error) {
	mm := &MeshMapping{Comm: c}
	var md meta
	var err error
	if c.Rank() == 0 {
		md, err = mm.fromSerial(m)
	}
	if err = comm.Agree(c, err); err != nil {
		return nil, err
	}
	md = comm.Bcast(c, 0, md)
	if c.Rank() != 0 {
		mm.Serial = serial.NewMesh(md.Dim)
		mm.Plex = plex.NewEmpty(md.Dim, md.CoordDim, md.CellType)
	}
	return mm, nil
}

func (mm *MeshMapping) fromSerial(m *serial.Mesh) (meta, error) {
	if m == nil {
		return meta{}, fmt.Errorf("no serial mesh on worker 0: %w", mberrors.ErrUnrecognizedMeshFormat)
	}
	types := m.ElementTypes()
	if len(types) > 1 {
		return meta{}, fmt.Errorf("mixed cell types %v: %w", types, mberrors.ErrUnsupported)
	}
	cellType, _ := reference.SimplexOfDim(m.Dim())
	if len(types) == 1 {
		cellType = types[0]
	}
	p := &plex.Plex{Dim: m.Dim(), CoordDim: m.Dim(), CellType: cellType}
	p.Coords = make([][]float64, m.NumPoints())
	for i, x := range m.Points {
		p.Coords[i] = append([]float64(nil), x...)
	}
	p.Cells = make([][]int, m.NumElements())
	for i, el := range m.Elements() {
		p.Cells[i] = append([]int(nil), el.Vertices...)
	}
	if err := p.Validate(); err != nil {
		return meta{}, err
	}
	mm.Serial = m
	mm.Plex = p
	mm.plexToSerial = identity(p.NumCells())
	mm.serialToPlex = identity(p.NumCells())
	return meta{Dim: p.Dim, CoordDim: p.CoordDim, CellType: p.CellType}, nil
}

// NewMeshMappingFromPlex rebuilds the serial mesh from a base plex held by
// worker 0, typically after a structural transform. The geometry of the
// previous serial mesh is not carried over. Collective.
func NewMeshMappingFromPlex(c comm.Comm, p *plex.Plex) (*MeshMapping, error) {
	mm := &MeshMapping{Comm: c}
	var md meta
	var err error
	if c.Rank() == 0 {
		md, err = mm.fromPlex(p)
	}
	if err = comm.Agree(c, err); err != nil {
		return nil, err
	}
	md = comm.Bcast(c, 0, md)
	if c.Rank() != 0 {
		mm.Serial = serial.NewMesh(md.Dim)
		mm.Plex = plex.NewEmpty(md.Dim, md.CoordDim, md.CellType)
	}
	return mm, nil
}

func (mm *MeshMapping) fromPlex(p *plex.Plex) (meta, error) {
	if p == nil {
		return meta{}, fmt.Errorf("no plex on worker 0: %w", mberrors.ErrUnrecognizedMeshFormat)
	}
	if err := p.Validate(); err != nil {
		return meta{}, err
	}
	if p.CoordDim != p.Dim {
		return meta{}, fmt.Errorf("plex of dimension %d embedded in %d: %w",
			p.Dim, p.CoordDim, mberrors.ErrUnsupported)
	}
	m := serial.NewMesh(p.Dim)
	for _, x := range p.Coords {
		if _, err := m.AddPoint(x...); err != nil {
			return meta{}, err
		}
	}
	for _, verts := range p.Cells {
		if _, err := m.AddElement(p.CellType, verts...); err != nil {
			return meta{}, err
		}
	}
	mm.Serial = m
	mm.Plex = p
	mm.plexToSerial = identity(p.NumCells())
	mm.serialToPlex = identity(p.NumCells())
	return meta{Dim: p.Dim, CoordDim: p.CoordDim, CellType: p.CellType}, nil
}

// SerialIndex returns the serial element of base plex cell. Worker 0 only.
func (mm *MeshMapping) SerialIndex(cell int) int { return mm.plexToSerial[cell] }

// PlexIndex returns the base plex cell of serial element. Worker 0 only.
func (mm *MeshMapping) PlexIndex(elem int) int { return mm.serialToPlex[elem] }

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

package fem

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

// Family names the continuity of a Lagrange space.
type Family string

const (
	CG Family = "CG" // continuous, vertex-shared nodes
	DG Family = "DG" // discontinuous, nodes owned by one cell
)

// FunctionSpace is a Lagrange space over the local cells of a mesh. Rows of
// the cell-node map are indexed by cell numbering offset, as are the cell
// blocks of a DG data array.
type FunctionSpace struct {
	mesh      *Mesh
	Family    Family
	Degree    int
	ValueSize int

	cellNodes    [][]int
	nodesPerCell int
	nodeCount    int

	// refNodes are the reference positions of a cell's nodes in row order;
	// nil for a CG1 space over non-simplex cells.
	refNodes [][]float64
}

// NewFunctionSpace returns a scalar space.
func NewFunctionSpace(m *Mesh, family Family, degree int) (*FunctionSpace, error) {
	return newSpace(m, family, degree, 1)
}

// NewVectorFunctionSpace returns a space with one component per
// coordinate.
func NewVectorFunctionSpace(m *Mesh, family Family, degree int) (*FunctionSpace, error) {
	return newSpace(m, family, degree, m.GeometricDimension())
}

func newSpace(m *Mesh, family Family, degree, valueSize int) (*FunctionSpace, error) {
	top := m.Topology
	V := &FunctionSpace{mesh: m, Family: family, Degree: degree, ValueSize: valueSize}
	V.cellNodes = make([][]int, top.NumCells())
	g := top.CellType

	switch {
	case family == CG && degree == 1:
		if g.IsSimplex() {
			V.refNodes, _ = reference.LagrangeNodes(g, 1)
		}
		for c, verts := range top.Cells {
			V.cellNodes[top.CellNumbering.Offset(c)] = append([]int(nil), verts...)
		}
		V.nodesPerCell = g.NumVertices()
		V.nodeCount = top.NumVertices()

	case family == DG && degree == 0:
		if g.IsSimplex() {
			V.refNodes, _ = reference.LagrangeNodes(g, 0)
		}
		for off := range V.cellNodes {
			V.cellNodes[off] = []int{off}
		}
		V.nodesPerCell = 1
		V.nodeCount = top.NumCells()

	case family == DG && degree > 0:
		nodes, err := reference.LagrangeNodes(g, degree)
		if err != nil {
			return nil, fmt.Errorf("DG%d space on %v cells: %w", degree, g, err)
		}
		V.refNodes = nodes
		nloc := len(nodes)
		V.nodesPerCell = nloc
		for off := range V.cellNodes {
			row := make([]int, nloc)
			for j := range row {
				row[j] = off*nloc + j
			}
			V.cellNodes[off] = row
		}
		V.nodeCount = top.NumCells() * nloc

	default:
		return nil, fmt.Errorf("%s%d space: %w", family, degree, mberrors.ErrUnsupported)
	}
	return V, nil
}

// Mesh returns the mesh the space is built on. NodeCount counts the nodes
// on this worker; NodesPerCell is the length of every CellNodes row.
func (V *FunctionSpace) Mesh() *Mesh       { return V.mesh }
func (V *FunctionSpace) NodeCount() int    { return V.nodeCount }
func (V *FunctionSpace) NodesPerCell() int { return V.nodesPerCell }

// CellNodes returns the nodes of the cell stored at a numbering offset.
func (V *FunctionSpace) CellNodes(offset int) []int { return V.cellNodes[offset] }

// ReferenceNodes returns the reference positions of a cell's nodes in
// CellNodes order.
func (V *FunctionSpace) ReferenceNodes() [][]float64 { return V.refNodes }

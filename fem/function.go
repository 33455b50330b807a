package fem

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

// Function is a field on a function space. Dat is node-major with
// ValueSize components per node.
type Function struct {
	space *FunctionSpace
	Name  string
	Dat   []float64
}

// NewFunction returns a zero field on V.
func NewFunction(V *FunctionSpace, name string) *Function {
	return &Function{space: V, Name: name, Dat: make([]float64, V.NodeCount()*V.ValueSize)}
}

func (f *Function) Space() *FunctionSpace { return f.space }

// Node returns the components stored at node n, aliasing Dat.
func (f *Function) Node(n int) []float64 {
	vs := f.space.ValueSize
	return f.Dat[n*vs : (n+1)*vs]
}

// SetNode overwrites the components stored at node n.
func (f *Function) SetNode(n int, v []float64) { copy(f.Node(n), v) }

// SetComponent writes component c of node n.
func (f *Function) SetComponent(n, c int, v float64) {
	f.Dat[n*f.space.ValueSize+c] = v
}

// CellValues returns the node values of the cell at a numbering offset in
// CellNodes order.
func (f *Function) CellValues(offset int) [][]float64 {
	nodes := f.space.CellNodes(offset)
	out := make([][]float64, len(nodes))
	for j, n := range nodes {
		out[j] = f.Node(n)
	}
	return out
}

// Interpolate sets f to the interpolant of src, a vector CG1 field on the
// same mesh, at the nodes of f's space.
func (f *Function) Interpolate(src *Function) error {
	V, S := f.space, src.space
	if V.mesh != S.mesh {
		return fmt.Errorf("interpolate %s into %s: %w", src.Name, f.Name, mberrors.ErrTopologyMismatch)
	}
	if S.Family != CG || S.Degree != 1 {
		return fmt.Errorf("interpolate from %s%d: %w", S.Family, S.Degree, mberrors.ErrUnsupported)
	}
	if V.ValueSize != S.ValueSize {
		return fmt.Errorf("interpolate %d components into %d", S.ValueSize, V.ValueSize)
	}
	if V.refNodes == nil {
		return fmt.Errorf("interpolate into %s%d on %v cells: %w",
			V.Family, V.Degree, V.mesh.CellType(), mberrors.ErrUnsupported)
	}
	for off := range V.cellNodes {
		verts := src.CellValues(off)
		for j, n := range V.CellNodes(off) {
			f.SetNode(n, reference.AffineMap(verts, V.refNodes[j]))
		}
	}
	return nil
}

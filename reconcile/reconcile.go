// Package reconcile maps between the local cells of a distributed mesh and
// the elements of the serial mesh on worker 0.
//
// Cell-wise arrays on a worker are laid out by the cell numbering: the value
// of local cell c lives at block Offset(c). On a single worker local cell i
// is serial element i, so a cell array is read in serial order through the
// numbering offsets. On several workers the array is first redistributed to
// worker 0 through the inverse star forest, after which it is already in
// serial order.
package reconcile

import (
	"fmt"

	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/plex"
	"github.com/notargets/meshbridge/sf"
)

// Reconciler resolves local cells to serial elements.
type Reconciler struct {
	comm      comm.Comm
	numbering *plex.Section
	forward   *sf.StarForest
	inverse   *sf.StarForest
}

// New returns a reconciler. forward has serial elements as roots and local
// cells as leaves; inverse is its inverse and nil on a single worker.
func New(c comm.Comm, numbering *plex.Section, forward, inverse *sf.StarForest) *Reconciler {
	return &Reconciler{comm: c, numbering: numbering, forward: forward, inverse: inverse}
}

// Partitioned reports whether resolution goes through the inverse map.
func (r *Reconciler) Partitioned() bool { return r.inverse != nil }

// ToSerial resolves a cell array, bs values per cell, to serial order. The
// returned index maps a serial element to its block in the returned array.
// On several workers only worker 0 receives data. Collective.
func (r *Reconciler) ToSerial(values []float64, bs int) ([]float64, func(int) int, error) {
	if !r.Partitioned() {
		if len(values) != r.numbering.Len()*bs {
			return nil, nil, fmt.Errorf("cell array has %d values, want %d cells x %d",
				len(values), r.numbering.Len(), bs)
		}
		return values, r.numbering.Offset, nil
	}
	resolved, err := DistributeField(r.inverse, r.numbering, values, bs)
	if err != nil {
		return nil, nil, err
	}
	return resolved, func(i int) int { return i }, nil
}

// FromSerial routes per-element blocks, held in serial order on worker 0,
// to the workers owning the cells and returns them as a cell array.
// Collective.
func (r *Reconciler) FromSerial(serialValues []float64, bs int) ([]float64, error) {
	n := r.numbering.Len()
	if !r.Partitioned() {
		if len(serialValues) != n*bs {
			return nil, fmt.Errorf("serial array has %d values, want %d elements x %d",
				len(serialValues), n, bs)
		}
		out := make([]float64, n*bs)
		for cell := 0; cell < n; cell++ {
			off := r.numbering.Offset(cell)
			copy(out[off*bs:(off+1)*bs], serialValues[cell*bs:(cell+1)*bs])
		}
		return out, nil
	}
	if r.forward == nil {
		return nil, fmt.Errorf("no star forest to the serial mesh: %w", mberrors.ErrUnsupported)
	}
	leaves, err := r.forward.Bcast(serialValues, bs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n*bs)
	for cell := 0; cell < n; cell++ {
		off := r.numbering.Offset(cell)
		copy(out[off*bs:(off+1)*bs], leaves[cell*bs:(cell+1)*bs])
	}
	return out, nil
}

// DistributeField moves a cell array laid out by section through the star
// forest whose roots are the local cells. Collective.
func DistributeField(s *sf.StarForest, section *plex.Section, values []float64, bs int) ([]float64, error) {
	var err error
	if section.Len() != s.NumRoots() {
		err = fmt.Errorf("section of %d cells on a forest with %d roots: %w",
			section.Len(), s.NumRoots(), mberrors.ErrTopologyMismatch)
	} else if len(values) != section.Len()*bs {
		err = fmt.Errorf("cell array has %d values, want %d cells x %d",
			len(values), section.Len(), bs)
	}
	if err = comm.Agree(s.Comm(), err); err != nil {
		return nil, err
	}
	roots := make([]float64, len(values))
	for cell := 0; cell < section.Len(); cell++ {
		off := section.Offset(cell)
		copy(roots[cell*bs:(cell+1)*bs], values[off*bs:(off+1)*bs])
	}
	return s.Bcast(roots, bs)
}

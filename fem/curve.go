package fem

import (
	"fmt"

	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

// CurveField returns the coordinates of the mesh as a vector DG field of
// the given order, with the boundary nodes of every element the serial
// mesh curves moved onto the curved geometry. Other nodes keep the
// straight-sided interpolant. Collective.
func (m *Mesh) CurveField(order int) (*Function, error) {
	gdim := m.GeometricDimension()
	if gdim != 2 && gdim != 3 {
		return nil, mberrors.UnsupportedDimension("curve_field", gdim, 2, 3)
	}
	if order < 1 {
		return nil, fmt.Errorf("curve field of order %d: %w", order, mberrors.ErrInvalidOrder)
	}
	if !m.caps.Curving {
		return nil, fmt.Errorf("curve mesh %s: %w", m.Name, mberrors.ErrUnsupported)
	}

	V, err := NewVectorFunctionSpace(m, DG, order)
	if err != nil {
		return nil, err
	}
	f := NewFunction(V, fmt.Sprintf("coordinates_p%d", order))
	if err := f.Interpolate(m.Coordinates); err != nil {
		return nil, err
	}
	refPts, err := reference.BoundaryPoints(m.CellType(), order)
	if err != nil {
		return nil, err
	}

	// per serial element: curved flag, straight points, curved points
	npts := len(refPts) * gdim
	bs := 1 + 2*npts
	var packed []float64
	err = m.coordinator.MutateOnOwnerAndBroadcast(func() error {
		sm := m.SerialMesh
		// drop any earlier curving so the first mapping is straight sided
		if err := sm.Curve(1); err != nil {
			return err
		}
		straight, err := sm.CalcElementMapping(refPts)
		if err != nil {
			return err
		}
		if err := sm.Curve(order); err != nil {
			return err
		}
		curved, err := sm.CalcElementMapping(refPts)
		if err != nil {
			return err
		}
		packed = make([]float64, sm.NumElements()*bs)
		for i, el := range sm.Elements() {
			if !el.Curved {
				continue
			}
			blk := packed[i*bs : (i+1)*bs]
			blk[0] = 1
			for j := range refPts {
				copy(blk[1+j*gdim:], straight[i][j])
				copy(blk[1+npts+j*gdim:], curved[i][j])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("curve mesh %s: %w", m.Name, err)
	}

	blocks, err := m.reconciler.FromSerial(packed, bs)
	if err != nil {
		return nil, err
	}
	ncurved, err := m.writeCurved(f, blocks, len(refPts))
	if err = comm.Agree(m.Comm(), err); err != nil {
		return nil, err
	}
	m.log.Debug().
		Str("mesh", m.Name).
		Int("rank", m.Comm().Rank()).
		Int("order", order).
		Int("curved", ncurved).
		Msg("curved coordinate field")
	return f, nil
}

// writeCurved overwrites the boundary nodes of every curved cell with the
// curved points, matched to the nodes through their straight positions.
func (m *Mesh) writeCurved(f *Function, blocks []float64, nref int) (int, error) {
	V := f.Space()
	gdim := V.ValueSize
	npts := nref * gdim
	bs := 1 + 2*npts
	matcher := PointMatcher{Decimals: m.builder.decimals}
	straight := make([][]float64, nref)
	curved := make([][]float64, nref)
	ncurved := 0
	for off := 0; off < m.NumCells(); off++ {
		blk := blocks[off*bs : (off+1)*bs]
		if blk[0] == 0 {
			continue
		}
		for j := 0; j < nref; j++ {
			straight[j] = blk[1+j*gdim : 1+(j+1)*gdim]
			curved[j] = blk[1+npts+j*gdim : 1+npts+(j+1)*gdim]
		}
		nodes := V.CellNodes(off)[:nref]
		dofs := make([][]float64, nref)
		for j, n := range nodes {
			dofs[j] = f.Node(n)
		}
		perm, err := matcher.Permutation(straight, dofs)
		if err != nil {
			return ncurved, fmt.Errorf("cell at offset %d: %w", off, err)
		}
		for j, n := range nodes {
			for c := 0; c < gdim; c++ {
				f.SetComponent(n, c, curved[perm[j]][c])
			}
		}
		ncurved++
	}
	return ncurved, nil
}

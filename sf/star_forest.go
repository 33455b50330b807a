// Package sf implements star forests: each worker owns a set of roots and a
// set of leaves, every leaf naming one root on some worker. Data moves from
// roots to leaves (Bcast) or from leaves to roots (Reduce) through pick and
// place index lists built once at set-up.
package sf

import (
	"fmt"

	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/mberrors"
)

// Remote addresses a root on a worker.
type Remote struct {
	Rank  int
	Index int
}

// StarForest manages pick and place indices between workers
type StarForest struct {
	comm   comm.Comm
	nroots int
	leaves []Remote

	// Pick/Place indices per peer
	PickIndices  []PickBuffer  // [targetRank] roots sent to each peer's leaves
	PlaceIndices []PlaceBuffer // [sourceRank] leaves filled from each peer's roots
}

// PickBuffer contains root indices gathered for one peer
type PickBuffer struct {
	Indices    []int
	TargetRank int
}

// PlaceBuffer contains leaf positions scattered from one peer
type PlaceBuffer struct {
	Indices    []int
	SourceRank int
}

// New creates a star forest with nroots local roots and the given leaves.
// Collective: every worker must call it.
func New(c comm.Comm, nroots int, leaves []Remote) (*StarForest, error) {
	var err error
	if nroots < 0 {
		err = fmt.Errorf("invalid root count %d", nroots)
	}
	for i, l := range leaves {
		if err == nil && (l.Rank < 0 || l.Rank >= c.Size() || l.Index < 0) {
			err = fmt.Errorf("leaf %d names invalid root %+v", i, l)
		}
	}
	if err = comm.Agree(c, err); err != nil {
		return nil, err
	}

	sf := &StarForest{
		comm:   c,
		nroots: nroots,
		leaves: append([]Remote(nil), leaves...),
	}
	sf.initializeBuffers()

	// Leaf side: group by owning rank, then ask each owner for its roots
	for i, l := range sf.leaves {
		sf.PlaceIndices[l.Rank].Indices = append(sf.PlaceIndices[l.Rank].Indices, i)
	}
	for q := 0; q < c.Size(); q++ {
		request := make([]int, len(sf.PlaceIndices[q].Indices))
		for k, leaf := range sf.PlaceIndices[q].Indices {
			request[k] = sf.leaves[leaf].Index
		}
		c.Send(q, request)
	}
	for q := 0; q < c.Size(); q++ {
		sf.PickIndices[q].Indices = c.Recv(q).([]int)
	}

	if err := comm.Agree(c, sf.Verify()); err != nil {
		return nil, err
	}
	return sf, nil
}

// initializeBuffers creates empty pick and place buffer structures
func (sf *StarForest) initializeBuffers() {
	size := sf.comm.Size()
	sf.PickIndices = make([]PickBuffer, size)
	sf.PlaceIndices = make([]PlaceBuffer, size)
	for q := 0; q < size; q++ {
		sf.PickIndices[q] = PickBuffer{Indices: make([]int, 0), TargetRank: q}
		sf.PlaceIndices[q] = PlaceBuffer{Indices: make([]int, 0), SourceRank: q}
	}
}

// NumRoots is the number of local roots; NumLeaves the number of local
// leaves, one per local point.
func (sf *StarForest) Comm() comm.Comm { return sf.comm }
func (sf *StarForest) NumRoots() int   { return sf.nroots }
func (sf *StarForest) NumLeaves() int  { return len(sf.leaves) }

// Leaf returns the root named by local leaf i.
func (sf *StarForest) Leaf(i int) Remote { return sf.leaves[i] }

// Bcast copies root values to the leaves naming them, bs values per point.
// Collective.
func (sf *StarForest) Bcast(rootData []float64, bs int) ([]float64, error) {
	var err error
	if len(rootData) != sf.nroots*bs {
		err = fmt.Errorf("bcast: root data has %d values, want %d roots x %d",
			len(rootData), sf.nroots, bs)
	}
	if err = comm.Agree(sf.comm, err); err != nil {
		return nil, err
	}
	for q, pick := range sf.PickIndices {
		sf.comm.Send(q, gather(rootData, pick.Indices, bs))
	}
	leafData := make([]float64, len(sf.leaves)*bs)
	for q, place := range sf.PlaceIndices {
		scatter(leafData, place.Indices, sf.comm.Recv(q).([]float64), bs)
	}
	return leafData, nil
}

// Reduce writes leaf values into the roots they name, bs values per point.
// Roots without leaves are zero. Collective.
func (sf *StarForest) Reduce(leafData []float64, bs int) ([]float64, error) {
	var err error
	if len(leafData) != len(sf.leaves)*bs {
		err = fmt.Errorf("reduce: leaf data has %d values, want %d leaves x %d",
			len(leafData), len(sf.leaves), bs)
	}
	if err = comm.Agree(sf.comm, err); err != nil {
		return nil, err
	}
	for q, place := range sf.PlaceIndices {
		sf.comm.Send(q, gather(leafData, place.Indices, bs))
	}
	rootData := make([]float64, sf.nroots*bs)
	for q, pick := range sf.PickIndices {
		scatter(rootData, pick.Indices, sf.comm.Recv(q).([]float64), bs)
	}
	return rootData, nil
}

// CreateInverse returns the star forest with roots and leaves swapped: every
// local leaf becomes a root and every root a leaf naming its former leaf.
// Fails with ErrNotBijective unless every root has exactly one leaf.
// Collective.
func (sf *StarForest) CreateInverse() (*StarForest, error) {
	for q, place := range sf.PlaceIndices {
		sf.comm.Send(q, place.Indices)
	}
	inverse := make([]Remote, sf.nroots)
	count := make([]int, sf.nroots)
	for q, pick := range sf.PickIndices {
		leafIdx := sf.comm.Recv(q).([]int)
		for k, root := range pick.Indices {
			inverse[root] = Remote{Rank: q, Index: leafIdx[k]}
			count[root]++
		}
	}
	var err error
	for root, n := range count {
		if n != 1 {
			err = fmt.Errorf("root %d on rank %d has %d leaves: %w",
				root, sf.comm.Rank(), n, mberrors.ErrNotBijective)
			break
		}
	}
	if err = comm.Agree(sf.comm, err); err != nil {
		return nil, err
	}
	return New(sf.comm, len(sf.leaves), inverse)
}

// Verify checks index validity and conservation properties
func (sf *StarForest) Verify() error {
	// Verify 1: Local validity - all pick indices are within bounds
	for q, pick := range sf.PickIndices {
		for _, idx := range pick.Indices {
			if idx < 0 || idx >= sf.nroots {
				return fmt.Errorf("invalid pick index %d for rank %d (max %d)",
					idx, q, sf.nroots-1)
			}
		}
	}

	// Verify 2: Conservation - every leaf is placed exactly once
	seen := make([]bool, len(sf.leaves))
	for q, place := range sf.PlaceIndices {
		for _, leaf := range place.Indices {
			if leaf < 0 || leaf >= len(seen) || seen[leaf] {
				return fmt.Errorf("invalid place index %d from rank %d", leaf, q)
			}
			seen[leaf] = true
		}
	}
	for leaf, ok := range seen {
		if !ok {
			return fmt.Errorf("conservation error: leaf %d is never placed", leaf)
		}
	}
	return nil
}

func gather(src []float64, indices []int, bs int) []float64 {
	out := make([]float64, len(indices)*bs)
	for k, idx := range indices {
		copy(out[k*bs:(k+1)*bs], src[idx*bs:(idx+1)*bs])
	}
	return out
}

func scatter(dst []float64, indices []int, values []float64, bs int) {
	for k, idx := range indices {
		copy(dst[idx*bs:(idx+1)*bs], values[k*bs:(k+1)*bs])
	}
}

package fem

import (
	"fmt"
	"math"
	"strconv"

	"github.com/notargets/meshbridge/mberrors"
)

// DefaultMatchDecimals is the rounding used to identify coincident points.
const DefaultMatchDecimals = 8

// PointMatcher identifies points by their coordinates rounded to Decimals
// decimal places.
type PointMatcher struct {
	Decimals int
}

func (pm PointMatcher) key(p []float64) string {
	scale := math.Pow(10, float64(pm.Decimals))
	buf := make([]byte, 0, 16*len(p))
	for c, x := range p {
		if c > 0 {
			buf = append(buf, ',')
		}
		r := math.Round(x * scale)
		if r == 0 {
			r = 0 // fold -0
		}
		buf = strconv.AppendFloat(buf, r, 'f', 0, 64)
	}
	return string(buf)
}

// Permutation returns perm such that ref[perm[j]] coincides with
// targets[j]. Two reference points sharing a key fail with
// ErrAmbiguousMatch; a target without a reference point fails with
// ErrUnmatchedPoint.
func (pm PointMatcher) Permutation(ref, targets [][]float64) ([]int, error) {
	index := make(map[string]int, len(ref))
	for i, p := range ref {
		k := pm.key(p)
		if j, dup := index[k]; dup {
			return nil, fmt.Errorf("reference points %d and %d coincide at %v to %d decimals: %w",
				j, i, p, pm.Decimals, mberrors.ErrAmbiguousMatch)
		}
		index[k] = i
	}
	perm := make([]int, len(targets))
	for j, p := range targets {
		i, ok := index[pm.key(p)]
		if !ok {
			return nil, fmt.Errorf("point %v has no reference point to %d decimals: %w",
				p, pm.Decimals, mberrors.ErrUnmatchedPoint)
		}
		perm[j] = i
	}
	return perm, nil
}

package plex

import "fmt"

// Section assigns each local cell an offset into cell-ordered arrays. The
// assignment is a bijection onto [0, n).
type Section struct {
	offsets []int // cell -> offset
	points  []int // offset -> cell
}

// NewSection builds a section from per-cell offsets.
func NewSection(offsets []int) (*Section, error) {
	points := make([]int, len(offsets))
	for i := range points {
		points[i] = -1
	}
	for cell, off := range offsets {
		if off < 0 || off >= len(offsets) {
			return nil, fmt.Errorf("cell %d has offset %d outside [0,%d)", cell, off, len(offsets))
		}
		if points[off] >= 0 {
			return nil, fmt.Errorf("cells %d and %d share offset %d", points[off], cell, off)
		}
		points[off] = cell
	}
	return &Section{offsets: append([]int(nil), offsets...), points: points}, nil
}

// Identity returns the section mapping every cell to itself.
func Identity(n int) *Section {
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = i
	}
	return &Section{offsets: offsets, points: append([]int(nil), offsets...)}
}

func (s *Section) Len() int { return len(s.offsets) }

// Offset returns the offset of cell.
func (s *Section) Offset(cell int) int { return s.offsets[cell] }

// Point returns the cell stored at offset.
func (s *Section) Point(offset int) int { return s.points[offset] }

// IsIdentity reports whether every cell sits at its own index.
func (s *Section) IsIdentity() bool {
	for c, off := range s.offsets {
		if c != off {
			return false
		}
	}
	return true
}

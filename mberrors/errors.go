// Package mberrors defines the error taxonomy shared by the meshbridge
// packages.
//
// Sentinels are intended for errors.Is checks; DimensionError carries the
// offending operation and dimension and matches ErrUnsupportedDimension.
//
//	if _, err := m.CurveField(2); errors.Is(err, mberrors.ErrUnsupportedDimension) {
//	    // mesh is neither 2D nor 3D
//	}
package mberrors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDimension is returned when a mesh operation is asked to
	// work on a geometric dimension it has no implementation for.
	ErrUnsupportedDimension = errors.New("unsupported dimension")

	// ErrUnrecognizedMeshFormat is returned at construction when the input is
	// neither a serial mesh nor a plex.
	ErrUnrecognizedMeshFormat = errors.New("mesh format not recognised")

	// ErrUnsupported marks a capability that is not available for this mesh.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrConfig indicates a malformed construction flag or option.
	ErrConfig = errors.New("configuration error")

	// ErrTopologyMismatch is returned when the serial mesh and the
	// distributed topology no longer describe the same cells.
	ErrTopologyMismatch = errors.New("serial mesh and topology disagree")

	// ErrAmbiguousMatch is returned when two reference points round to the
	// same key during point matching.
	ErrAmbiguousMatch = errors.New("ambiguous point match")

	// ErrUnmatchedPoint is returned when a reference point has no degree of
	// freedom at the same location.
	ErrUnmatchedPoint = errors.New("unmatched point")

	// ErrInvalidOrder is returned for polynomial orders below one.
	ErrInvalidOrder = errors.New("invalid polynomial order")

	// ErrNotBijective is returned when a star forest cannot be inverted.
	ErrNotBijective = errors.New("star forest is not bijective")
)

// DimensionError reports an operation invoked on a mesh of unsupported
// geometric dimension.
type DimensionError struct {
	// Op names the operation, e.g. "refine_marked_elements"
	Op string
	// Dim is the geometric dimension that was rejected
	Dim int
	// Supported lists the dimensions the operation accepts
	Supported []int
}

// Error returns a human-readable error message.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: no implementation for dimension %d (supported %v)",
		e.Op, e.Dim, e.Supported)
}

// Is reports whether target is ErrUnsupportedDimension.
func (e *DimensionError) Is(target error) bool {
	return target == ErrUnsupportedDimension
}

// UnsupportedDimension builds a DimensionError.
func UnsupportedDimension(op string, dim int, supported ...int) error {
	return &DimensionError{Op: op, Dim: dim, Supported: supported}
}

package mberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimensionErrorMatchesSentinel(t *testing.T) {
	err := UnsupportedDimension("curve_field", 4, 2, 3)
	assert.True(t, errors.Is(err, ErrUnsupportedDimension))
	assert.False(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "dimension 4")

	wrapped := fmt.Errorf("rank 1: %w", err)
	var de *DimensionError
	if assert.True(t, errors.As(wrapped, &de)) {
		assert.Equal(t, "curve_field", de.Op)
		assert.Equal(t, 4, de.Dim)
		assert.Equal(t, []int{2, 3}, de.Supported)
	}
}

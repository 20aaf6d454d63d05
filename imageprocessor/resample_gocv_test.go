//go:build gocv

package imageprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCVAreaResampler_ProducesTargetSize(t *testing.T) {
	n, err := NewNormalizer(16, 8, "cv-area")
	require.NoError(t, err)

	grid, err := n.NormalizeImage(checkerboard(64, 64, 8))
	require.NoError(t, err)
	assert.Equal(t, 16, grid.Width)
	assert.Equal(t, 8, grid.Height)
}

package imageprocessor

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupResampler(t *testing.T) {
	for _, name := range []string{"box", "Lanczos", "nfnt-bicubic"} {
		r, err := LookupResampler(name)
		require.NoError(t, err, name)
		assert.NotNil(t, r)
	}

	_, err := LookupResampler("bogus")
	assert.True(t, errors.Is(err, ErrUnknownFilter))
}

func TestResamplerNames(t *testing.T) {
	names := ResamplerNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, DefaultFilter)
	assert.Contains(t, names, "nfnt-lanczos3")
}

func TestRegisterResampler(t *testing.T) {
	called := false
	RegisterResampler("test-noop", func(img image.Image, w, h int) image.Image {
		called = true
		return image.NewNRGBA(image.Rect(0, 0, w, h))
	})

	n, err := NewNormalizer(4, 4, "TEST-NOOP")
	require.NoError(t, err)

	grid, err := n.NormalizeImage(checkerboard(8, 8, 2))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 4, grid.Width)
}

package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagecompare/types"
)

// checkerboard draws black and white squares of cell pixels
func checkerboard(w, h, cell int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewNormalizer_Validation(t *testing.T) {
	_, err := NewNormalizer(0, 10, DefaultFilter)
	assert.True(t, errors.Is(err, ErrInvalidDimensions))

	_, err = NewNormalizer(10, -1, DefaultFilter)
	assert.True(t, errors.Is(err, ErrInvalidDimensions))

	_, err = NewNormalizer(10, 10, "no-such-filter")
	assert.True(t, errors.Is(err, ErrUnknownFilter))

	n, err := NewNormalizer(10, 10, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultFilter, n.Filter)
}

func TestNormalize_TargetSizeForEveryFilter(t *testing.T) {
	src := encodePNG(t, checkerboard(40, 30, 5))

	for _, name := range ResamplerNames() {
		t.Run(name, func(t *testing.T) {
			n, err := NewNormalizer(16, 12, name)
			require.NoError(t, err)

			grid, err := n.Normalize(bytes.NewReader(src))
			require.NoError(t, err)
			assert.Equal(t, 16, grid.Width)
			assert.Equal(t, 12, grid.Height)
			assert.Len(t, grid.Pix, 16*12)
		})
	}
}

func TestNormalize_SolidColorSurvivesResize(t *testing.T) {
	c := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	n, err := NewNormalizer(8, 8, "box")
	require.NoError(t, err)

	grid, err := n.Normalize(bytes.NewReader(encodePNG(t, solid(3, 5, c))))
	require.NoError(t, err)

	want := Pack(c.A, c.R, c.G, c.B)
	for i, px := range grid.Pix {
		require.Equal(t, want, px, "pixel %d", i)
	}
}

func TestNormalize_DecodeError(t *testing.T) {
	n, err := NewNormalizer(8, 8, DefaultFilter)
	require.NoError(t, err)

	_, err = n.Normalize(strings.NewReader("definitely not an image"))
	require.Error(t, err)

	var de *DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestNormalizeFile_ReportsPath(t *testing.T) {
	n, err := NewNormalizer(8, 8, DefaultFilter)
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "missing.png")
	_, err = n.NormalizeFile(missing)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, missing, de.Path)
	assert.Contains(t, err.Error(), missing)
}

func TestNormalizeImage_Empty(t *testing.T) {
	n, err := NewNormalizer(8, 8, DefaultFilter)
	require.NoError(t, err)

	_, err = n.NormalizeImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	var de *DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestGridRoundTrip(t *testing.T) {
	grid := types.NewGrid(3, 2)
	for i := range grid.Pix {
		grid.Pix[i] = Pack(uint8(100+i), uint8(i*10), uint8(i*20), uint8(i*30))
	}

	back := GridFromImage(GridToImage(grid))
	assert.Equal(t, grid, back)
}

func TestGridFromImage_GenericPath(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 2, 4, 3))
	img.Set(2, 2, color.RGBA{R: 255, A: 255})
	img.Set(3, 2, color.RGBA{B: 255, A: 255})

	grid := GridFromImage(img)
	require.Equal(t, 2, grid.Width)
	require.Equal(t, 1, grid.Height)
	assert.Equal(t, uint32(0xFFFF0000), grid.At(0, 0))
	assert.Equal(t, uint32(0xFF0000FF), grid.At(1, 0))
}

func TestGridBytes(t *testing.T) {
	grid := &types.Grid{Width: 2, Height: 1, Pix: []uint32{0x01020304, 0xA0B0C0D0}}
	assert.Equal(t, []byte{1, 2, 3, 4, 0xA0, 0xB0, 0xC0, 0xD0}, GridBytes(grid))
}

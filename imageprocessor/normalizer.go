// Package imageprocessor turns image files into fixed-size pixel grids and
// fingerprints them for comparison.
package imageprocessor

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"imagecompare/logging"
	"imagecompare/types"
)

// Default target resolution
const (
	DefaultWidth  = 256
	DefaultHeight = 256
)

// ErrInvalidDimensions is returned for a non-positive target size
var ErrInvalidDimensions = errors.New("target dimensions must be positive")

// DecodeError reports an input that could not be decoded into an image.
// It is never fatal for a batch: the caller drops the input and continues.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Normalizer decodes images and resizes them to a fixed resolution
type Normalizer struct {
	Width  int
	Height int
	Filter string

	resample Resampler
}

// NewNormalizer validates the target size and resolves the resampling filter
func NewNormalizer(width, height int, filter string) (*Normalizer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "got %dx%d", width, height)
	}
	if filter == "" {
		filter = DefaultFilter
	}
	r, err := LookupResampler(filter)
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		Width:    width,
		Height:   height,
		Filter:   filter,
		resample: r,
	}, nil
}

// Normalize decodes r and resizes the result to the target resolution
func (n *Normalizer) Normalize(r io.Reader) (*types.Grid, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return n.NormalizeImage(img)
}

// NormalizeFile opens path and normalizes its content
func (n *Normalizer) NormalizeFile(path string) (*types.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	grid, err := n.Normalize(f)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}

	logging.DebugLog("Normalized %s to %dx%d using %s", path, n.Width, n.Height, n.Filter)
	return grid, nil
}

// NormalizeImage resizes an already decoded image
func (n *Normalizer) NormalizeImage(img image.Image) (*types.Grid, error) {
	if img.Bounds().Empty() {
		return nil, &DecodeError{Err: errors.New("image has no pixels")}
	}
	return GridFromImage(n.resample(img, n.Width, n.Height)), nil
}

// GridFromImage converts any image into a packed ARGB grid
func GridFromImage(img image.Image) *types.Grid {
	b := img.Bounds()
	grid := types.NewGrid(b.Dx(), b.Dy())

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < grid.Height; y++ {
			row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+grid.Width*4]
			for x := 0; x < grid.Width; x++ {
				p := row[x*4 : x*4+4]
				grid.Set(x, y, Pack(p[3], p[0], p[1], p[2]))
			}
		}
		return grid
	}

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			grid.Set(x, y, Pack(c.A, c.R, c.G, c.B))
		}
	}
	return grid
}

// GridToImage converts a grid back into an image for fingerprinting libraries
func GridToImage(grid *types.Grid) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			a, r, g, b := Unpack(grid.At(x, y))
			i := img.PixOffset(x, y)
			img.Pix[i+0] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = a
		}
	}
	return img
}

// GridBytes serializes the grid as big-endian ARGB bytes
func GridBytes(grid *types.Grid) []byte {
	buf := make([]byte, 0, len(grid.Pix)*4)
	for _, px := range grid.Pix {
		buf = append(buf, byte(px>>24), byte(px>>16), byte(px>>8), byte(px))
	}
	return buf
}

package metrics

import (
	"math"

	"imagecompare/imageprocessor"
	"imagecompare/types"
)

// MeanLuma scores 1 - mean(|gray1-gray2|)/255 over 8-bit grayscale values.
// Unlike the banded metrics it degrades smoothly with the size of the
// difference instead of counting positions.
type MeanLuma struct{}

func (MeanLuma) Name() string { return string(KindMeanLuma) }

func (m MeanLuma) Score(a, b *types.Sample) (float64, error) {
	return m.Compare(a.Grid, b.Grid)
}

// Compare returns the similarity of two equally sized grids
func (MeanLuma) Compare(a, b *types.Grid) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}
	if len(a.Pix) == 0 {
		return 1.0, nil
	}

	var sum float64
	for i := range a.Pix {
		sum += math.Abs(float64(Luma(a.Pix[i])) - float64(Luma(b.Pix[i])))
	}
	meanDiff := sum / float64(len(a.Pix))

	// Return similarity score (1 = identical, 0 = completely different)
	return 1.0 - (meanDiff / 255.0), nil
}

// Luma converts a packed pixel to 8-bit gray with the BT.601 weights
func Luma(px uint32) uint8 {
	_, r, g, b := imageprocessor.Unpack(px)
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Round(y))
}

package metrics

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"imagecompare/imageprocessor"
	"imagecompare/types"
)

// PixelDiff counts positions whose normalized channel delta stays under the
// tolerance band.
//
// The delta sums four channels but is normalized by 255*Divisor. Divisor
// defaults to 3 so that existing thresholds keep their meaning; set it to 4
// to normalize over the full range.
type PixelDiff struct {
	Tolerance float64
	Divisor   float64
}

// NewPixelDiff validates the tolerance and divisor
func NewPixelDiff(tolerance, divisor float64) (*PixelDiff, error) {
	if err := validTolerance(tolerance); err != nil {
		return nil, err
	}
	if divisor <= 0 {
		return nil, errors.Errorf("channel divisor must be positive, got %v", divisor)
	}
	return &PixelDiff{Tolerance: tolerance, Divisor: divisor}, nil
}

func (m *PixelDiff) Name() string { return string(KindPixelDiff) }

func (m *PixelDiff) Score(a, b *types.Sample) (float64, error) {
	return m.Compare(a.Grid, b.Grid)
}

// Compare returns the fraction of matching pixels of two equally sized grids
func (m *PixelDiff) Compare(a, b *types.Grid) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}
	limit := 1 - m.Tolerance
	scale := 255.0 * m.Divisor
	return matchFraction(a, b, func(p1, p2 uint32) bool {
		// pxDiff: higher is worse
		return float64(imageprocessor.PixelDelta(p1, p2))/scale < limit
	}), nil
}

// ExactPixel counts positions whose packed values are identical
type ExactPixel struct{}

func (ExactPixel) Name() string { return string(KindExactPixel) }

func (m ExactPixel) Score(a, b *types.Sample) (float64, error) {
	return m.Compare(a.Grid, b.Grid)
}

// Compare returns the fraction of identical pixels of two equally sized grids
func (ExactPixel) Compare(a, b *types.Grid) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}
	return matchFraction(a, b, func(p1, p2 uint32) bool { return p1 == p2 }), nil
}

// ColorDistance counts positions whose CIEDE2000 distance stays under the
// tolerance band. Alpha is ignored.
type ColorDistance struct {
	Tolerance float64
}

// NewColorDistance validates the tolerance
func NewColorDistance(tolerance float64) (*ColorDistance, error) {
	if err := validTolerance(tolerance); err != nil {
		return nil, err
	}
	return &ColorDistance{Tolerance: tolerance}, nil
}

func (m *ColorDistance) Name() string { return string(KindColorDistance) }

func (m *ColorDistance) Score(a, b *types.Sample) (float64, error) {
	return m.Compare(a.Grid, b.Grid)
}

// Compare returns the fraction of perceptually close pixels
func (m *ColorDistance) Compare(a, b *types.Grid) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}
	limit := 1 - m.Tolerance
	return matchFraction(a, b, func(p1, p2 uint32) bool {
		if p1 == p2 {
			return limit > 0
		}
		return toColorful(p1).DistanceCIEDE2000(toColorful(p2)) < limit
	}), nil
}

func toColorful(px uint32) colorful.Color {
	_, r, g, b := imageprocessor.Unpack(px)
	return colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}

// matchFraction applies match to every position. An empty grid matches vacuously.
func matchFraction(a, b *types.Grid, match func(p1, p2 uint32) bool) float64 {
	size := len(a.Pix)
	if size == 0 {
		return 1.0
	}
	counter := 0
	for i := 0; i < size; i++ {
		if match(a.Pix[i], b.Pix[i]) {
			counter++
		}
	}
	return float64(counter) / float64(size)
}

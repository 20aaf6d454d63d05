// Package metrics scores the similarity of two normalized images.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"imagecompare/types"
)

// Kind selects a metric
type Kind string

const (
	KindPixelDiff      Kind = "pixel-diff"
	KindExactPixel     Kind = "exact-pixel"
	KindColorDistance  Kind = "color-distance"
	KindPerceptualHash Kind = "perceptual-hash"
	KindMeanLuma       Kind = "mean-luma"
)

// Kinds lists every supported metric
var Kinds = []Kind{KindPixelDiff, KindExactPixel, KindColorDistance, KindPerceptualHash, KindMeanLuma}

// Defaults shared by the tolerance-banded metrics
const (
	DefaultPixelTolerance = 0.9
	DefaultChannelDivisor = 3.0
)

var (
	// ErrDimensionMismatch matches every DimensionMismatchError via errors.Is
	ErrDimensionMismatch = errors.New("The given images do not have the same dimensions")

	// ErrUnknownMetric is returned for an unsupported metric kind
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrInvalidTolerance is returned for a tolerance outside [0, 1]
	ErrInvalidTolerance = errors.New("pixel tolerance must be between 0 and 1")
)

// DimensionMismatchError fails a single comparison between grids of different size
type DimensionMismatchError struct {
	WidthA, HeightA int
	WidthB, HeightB int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%v: %dx%d vs %dx%d", ErrDimensionMismatch, e.WidthA, e.HeightA, e.WidthB, e.HeightB)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

func checkDimensions(a, b *types.Grid) error {
	if a == nil || b == nil {
		return errors.New("cannot compare a missing grid")
	}
	if !a.SameSize(b) {
		return &DimensionMismatchError{
			WidthA: a.Width, HeightA: a.Height,
			WidthB: b.Width, HeightB: b.Height,
		}
	}
	return nil
}

// Metric scores two samples; 1.0 means identical
type Metric interface {
	Name() string
	Score(a, b *types.Sample) (float64, error)
}

// Preparer is implemented by metrics that precompute per-sample state.
// Prepare runs once before any Score call; Score may then run concurrently.
type Preparer interface {
	Prepare(ctx context.Context, samples []*types.Sample) error
}

// ParseKind resolves a metric name
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownMetric, "%q", name)
}

// Options configures New
type Options struct {
	Kind           Kind
	PixelTolerance float64
	ChannelDivisor float64
	Hasher         string
	Cache          TokenCache
}

// New builds the metric selected by opts.Kind
func New(opts Options) (Metric, error) {
	switch opts.Kind {
	case KindPixelDiff:
		return NewPixelDiff(opts.PixelTolerance, opts.ChannelDivisor)
	case KindExactPixel:
		return ExactPixel{}, nil
	case KindColorDistance:
		return NewColorDistance(opts.PixelTolerance)
	case KindPerceptualHash:
		return NewHashMetric(opts.Hasher, opts.Cache)
	case KindMeanLuma:
		return MeanLuma{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownMetric, "%q", opts.Kind)
	}
}

func validTolerance(t float64) error {
	if t < 0 || t > 1 {
		return errors.Wrapf(ErrInvalidTolerance, "got %v", t)
	}
	return nil
}

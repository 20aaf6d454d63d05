package imageprocessor

import (
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// DefaultFilter is the area-averaging filter used when none is configured
const DefaultFilter = "box"

// ErrUnknownFilter is returned when a resampling filter name is not registered
var ErrUnknownFilter = errors.New("unknown resampling filter")

// Resampler scales an image to exactly width x height
type Resampler func(img image.Image, width, height int) image.Image

var (
	resamplers   = map[string]Resampler{}
	resamplersMu sync.RWMutex
)

func init() {
	imagingFilters := map[string]imaging.ResampleFilter{
		"box":        imaging.Box,
		"linear":     imaging.Linear,
		"catmullrom": imaging.CatmullRom,
		"lanczos":    imaging.Lanczos,
		"nearest":    imaging.NearestNeighbor,
		"mitchell":   imaging.MitchellNetravali,
		"gaussian":   imaging.Gaussian,
	}
	for name, filter := range imagingFilters {
		RegisterResampler(name, imagingResampler(filter))
	}

	nfntFilters := map[string]resize.InterpolationFunction{
		"nfnt-nearest":  resize.NearestNeighbor,
		"nfnt-bilinear": resize.Bilinear,
		"nfnt-bicubic":  resize.Bicubic,
		"nfnt-mitchell": resize.MitchellNetravali,
		"nfnt-lanczos3": resize.Lanczos3,
	}
	for name, interp := range nfntFilters {
		RegisterResampler(name, nfntResampler(interp))
	}
}

func imagingResampler(filter imaging.ResampleFilter) Resampler {
	return func(img image.Image, width, height int) image.Image {
		return imaging.Resize(img, width, height, filter)
	}
}

func nfntResampler(interp resize.InterpolationFunction) Resampler {
	return func(img image.Image, width, height int) image.Image {
		return resize.Resize(uint(width), uint(height), img, interp)
	}
}

// RegisterResampler adds or replaces a named resampling filter
func RegisterResampler(name string, r Resampler) {
	resamplersMu.Lock()
	defer resamplersMu.Unlock()
	resamplers[strings.ToLower(name)] = r
}

// LookupResampler resolves a filter name
func LookupResampler(name string) (Resampler, error) {
	resamplersMu.RLock()
	defer resamplersMu.RUnlock()

	r, ok := resamplers[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFilter, "%q", name)
	}
	return r, nil
}

// ResamplerNames returns the registered filter names, sorted
func ResamplerNames() []string {
	resamplersMu.RLock()
	defer resamplersMu.RUnlock()

	names := make([]string, 0, len(resamplers))
	for name := range resamplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

//go:build gocv

package imageprocessor

import (
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"imagecompare/logging"
)

func init() {
	RegisterResampler("cv-area", cvAreaResampler)
}

// cvAreaResampler resizes with OpenCV's INTER_AREA, falling back to the box
// filter when the image cannot round-trip through a Mat.
func cvAreaResampler(img image.Image, width, height int) image.Image {
	src, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		logging.LogWarning("gocv conversion failed, using box filter: %v", err)
		return imaging.Resize(img, width, height, imaging.Box)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationArea)
	if dst.Empty() {
		return imaging.Resize(img, width, height, imaging.Box)
	}

	out, err := dst.ToImage()
	if err != nil {
		logging.LogWarning("gocv output conversion failed, using box filter: %v", err)
		return imaging.Resize(img, width, height, imaging.Box)
	}
	return out
}

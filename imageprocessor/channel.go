package imageprocessor

import "imagecompare/types"

type channelMask struct {
	mask  uint32
	shift uint
}

// channelMasks decodes a packed ARGB value. The masks are disjoint and
// together cover all 32 bits.
var channelMasks = [...]channelMask{
	types.Alpha: {mask: 0xFF000000, shift: 24},
	types.Red:   {mask: 0x00FF0000, shift: 16},
	types.Green: {mask: 0x0000FF00, shift: 8},
	types.Blue:  {mask: 0x000000FF, shift: 0},
}

// ExtractChannel returns the 8-bit intensity of one channel of a packed pixel
func ExtractChannel(pixel uint32, ch types.Channel) uint8 {
	m := channelMasks[ch]
	return uint8(((pixel & m.mask) >> m.shift) & 0xFF)
}

// Pack builds a packed ARGB pixel from its channels
func Pack(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits a packed ARGB pixel into its channels
func Unpack(pixel uint32) (a, r, g, b uint8) {
	return ExtractChannel(pixel, types.Alpha),
		ExtractChannel(pixel, types.Red),
		ExtractChannel(pixel, types.Green),
		ExtractChannel(pixel, types.Blue)
}

// PixelDelta sums the absolute per-channel differences of two pixels.
// The result lies in [0, 4*255].
func PixelDelta(px1, px2 uint32) int {
	diff := 0
	for _, ch := range types.Channels {
		d := int(ExtractChannel(px1, ch)) - int(ExtractChannel(px2, ch))
		if d < 0 {
			d = -d
		}
		diff += d
	}
	return diff
}

package imageprocessor

// Extra decoders beyond the standard library's, so the any-file mode can
// read every format listed in formatExtensions.
import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

package export

import (
	"image"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

// Thumbnail scales img down to fit within size×size, keeping its aspect
// ratio. Images already within bounds are returned unchanged.
func Thumbnail(img image.Image, size uint) image.Image {
	return resize.Thumbnail(size, size, img, resize.Lanczos3)
}

// WriteThumbnail encodes a size×size-bounded PNG preview of img to w.
func WriteThumbnail(w io.Writer, img image.Image, size uint) error {
	return png.Encode(w, Thumbnail(img, size))
}

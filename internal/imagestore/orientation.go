package imagestore

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// jpegQuality is used when re-encoding a rotated JPEG.
const jpegQuality = 92

// orientationTransform returns the src to dst affine matrix for an EXIF
// orientation and whether the output swaps width and height.
func orientationTransform(orientation int, w, h float64) (f64.Aff3, bool) {
	switch orientation {
	case 2: // mirror horizontal
		return f64.Aff3{-1, 0, w, 0, 1, 0}, false
	case 3: // rotate 180
		return f64.Aff3{-1, 0, w, 0, -1, h}, false
	case 4: // mirror vertical
		return f64.Aff3{1, 0, 0, 0, -1, h}, false
	case 5: // transpose
		return f64.Aff3{0, 1, 0, 1, 0, 0}, true
	case 6: // rotate 90 clockwise
		return f64.Aff3{0, -1, h, 1, 0, 0}, true
	case 7: // transverse
		return f64.Aff3{0, -1, h, -1, 0, w}, true
	case 8: // rotate 90 counter-clockwise
		return f64.Aff3{0, 1, 0, -1, 0, w}, true
	default:
		return f64.Aff3{1, 0, 0, 0, 1, 0}, false
	}
}

// applyOrientation returns img drawn upright for the given EXIF orientation.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m, swap := orientationTransform(orientation, float64(w), float64(h))

	dstW, dstH := w, h
	if swap {
		dstW, dstH = h, w
	}

	// Translate the source origin to 0,0 before applying the orientation.
	m[2] -= m[0]*float64(b.Min.X) + m[1]*float64(b.Min.Y)
	m[5] -= m[3]*float64(b.Min.X) + m[4]*float64(b.Min.Y)

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.NearestNeighbor.Transform(dst, m, img, b, draw.Src, nil)
	return dst
}

// fixJPEGOrientation re-encodes JPEG data upright. The EXIF block is not carried
// over, so the orientation cannot be applied twice by viewers.
func fixJPEGOrientation(data []byte, orientation int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, applyOrientation(img, orientation), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

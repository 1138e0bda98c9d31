package processor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// LoadImage opens and decodes an image file. JPEG, PNG, GIF, BMP, TIFF and
// WebP are recognised by content, not by extension.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return img, nil
}

// Composite returns base with top drawn over it using the Porter-Duff "over"
// operator. top is first resized to exactly the base's dimensions with a
// Lanczos filter (aspect ratio is not preserved) and its alpha channel is
// multiplied by opacity/255.
//
// The result always has the base's dimensions and origin (0, 0). Wherever the
// scaled overlay pixel is fully transparent the base pixel is kept as is,
// including the color of fully transparent base pixels.
func Composite(base, top image.Image, opacity uint8) *image.NRGBA {
	dst := imaging.Clone(base)

	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	if w == 0 || h == 0 || opacity == 0 {
		return dst
	}

	layer := ScaleAlpha(imaging.Resize(top, w, h, imaging.Lanczos), opacity)
	out := imaging.Overlay(dst, layer, image.Pt(0, 0), 1.0)

	// Overlay zeroes pixels where both alphas are 0.
	for i := 3; i < len(layer.Pix); i += 4 {
		if layer.Pix[i] == 0 {
			copy(out.Pix[i-3:i+1], dst.Pix[i-3:i+1])
		}
	}

	return out
}

// ScaleAlpha returns a copy of img with every alpha value multiplied by
// opacity/255, truncated toward zero. Color channels are left untouched.
func ScaleAlpha(img image.Image, opacity uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = uint8(uint32(c.A) * uint32(opacity) / 255)
		return c
	})
}

package processor

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-batch/internal/model"
	"github.com/aliskhannn/image-batch/internal/storage/file"
)

// gradient creates an opaque test image with a color gradient.
func gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 90,
				A: 255,
			})
		}
	}

	return img
}

func solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	return img
}

func saveImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))

	return path
}

func TestComposite_KeepsBaseDimensions(t *testing.T) {
	tests := []struct {
		name         string
		base, top    image.Rectangle
		wantW, wantH int
	}{
		{"overlay smaller", image.Rect(0, 0, 40, 30), image.Rect(0, 0, 10, 10), 40, 30},
		{"overlay larger", image.Rect(0, 0, 40, 30), image.Rect(0, 0, 200, 90), 40, 30},
		{"different aspect", image.Rect(0, 0, 16, 64), image.Rect(0, 0, 64, 16), 16, 64},
		{"same size", image.Rect(0, 0, 25, 25), image.Rect(0, 0, 25, 25), 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := gradient(tt.base.Dx(), tt.base.Dy())
			top := gradient(tt.top.Dx(), tt.top.Dy())

			out := Composite(base, top, 128)

			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestComposite_ZeroOpacityReturnsBase(t *testing.T) {
	base := gradient(40, 30)
	top := solid(13, 7, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	out := Composite(base, top, 0)

	assert.Equal(t, base.Pix, out.Pix)
}

func TestComposite_FullOpacityReturnsResizedOverlay(t *testing.T) {
	base := gradient(40, 30)
	top := gradient(17, 23)

	out := Composite(base, top, 255)
	want := imaging.Resize(top, 40, 30, imaging.Lanczos)

	assert.Equal(t, want.Pix, out.Pix)
}

func TestComposite_HalfOpacityBlends(t *testing.T) {
	base := solid(8, 8, color.NRGBA{A: 255})
	top := solid(8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := Composite(base, top, 128)

	c := out.NRGBAAt(3, 3)
	assert.InDelta(t, 128, int(c.R), 1)
	assert.InDelta(t, 128, int(c.G), 1)
	assert.InDelta(t, 128, int(c.B), 1)
	assert.Equal(t, uint8(255), c.A)
}

func TestComposite_TransparentOverlayPixelsKeepBase(t *testing.T) {
	base := gradient(10, 10)
	top := solid(10, 10, color.NRGBA{R: 255, A: 0})

	out := Composite(base, top, 255)

	assert.Equal(t, base.Pix, out.Pix)
}

// translucent returns a base with opaque, semi-transparent and fully
// transparent pixels.
func translucent() *image.NRGBA {
	img := gradient(6, 6)
	for x := 0; x < 6; x++ {
		img.SetNRGBA(x, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
		img.SetNRGBA(x, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	}

	return img
}

func TestComposite_ZeroOpacityKeepsTranslucentBase(t *testing.T) {
	base := translucent()
	top := solid(6, 6, color.NRGBA{R: 255, A: 255})

	out := Composite(base, top, 0)

	assert.Equal(t, base.Pix, out.Pix)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0}, out.NRGBAAt(1, 1))
}

func TestComposite_TransparentOverlayKeepsTranslucentBase(t *testing.T) {
	base := translucent()
	top := solid(6, 6, color.NRGBA{R: 255, G: 255, A: 0})

	out := Composite(base, top, 255)

	assert.Equal(t, base.Pix, out.Pix)
}

func TestComposite_OverlayOnTransparentBase(t *testing.T) {
	base := solid(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	top := solid(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := Composite(base, top, 128)

	c := out.NRGBAAt(2, 2)
	assert.Equal(t, uint8(128), c.A)
	assert.Equal(t, uint8(255), c.R)
}

func TestComposite_NonZeroOrigin(t *testing.T) {
	base := gradient(20, 20).SubImage(image.Rect(5, 5, 15, 15))

	out := Composite(base, gradient(4, 4), 64)

	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
}

func TestScaleAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 200})
	img.SetNRGBA(2, 0, color.NRGBA{R: 70, G: 80, B: 90, A: 0})

	out := ScaleAlpha(img, 128)

	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 128}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 40, G: 50, B: 60, A: 100}, out.NRGBAAt(1, 0), "alpha is multiplied, not replaced")
	assert.Equal(t, color.NRGBA{R: 70, G: 80, B: 90, A: 0}, out.NRGBAAt(2, 0))
	assert.Equal(t, uint8(200), img.NRGBAAt(1, 0).A, "source is not modified")
}

func TestScaleAlpha_Bounds(t *testing.T) {
	img := solid(2, 2, color.NRGBA{A: 255})

	assert.Equal(t, uint8(255), ScaleAlpha(img, 255).NRGBAAt(1, 1).A)
	assert.Equal(t, uint8(0), ScaleAlpha(img, 0).NRGBAAt(1, 1).A)
}

func TestOverlay_WritesPNGUnderBaseName(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	basePath := saveImage(t, in, "photo.jpg", gradient(32, 24))
	overlayPath := saveImage(t, in, "mask.png", gradient(8, 8))

	p := New(file.NewStorage(""))
	dst, err := p.Overlay(context.Background(), model.OverlayJob{
		BasePath:    basePath,
		OverlayPath: overlayPath,
		OutputDir:   out,
		Filename:    "photo.jpg",
		Opacity:     128,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "photo.jpg"), dst)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err, "output must be PNG regardless of its extension")
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestOverlay_CorruptOverlayWritesNothing(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	basePath := saveImage(t, in, "base.png", gradient(8, 8))
	overlayPath := filepath.Join(in, "broken.png")
	require.NoError(t, os.WriteFile(overlayPath, []byte("not an image"), 0o644))

	p := New(file.NewStorage(""))
	_, err := p.Overlay(context.Background(), model.OverlayJob{
		BasePath:    basePath,
		OverlayPath: overlayPath,
		OutputDir:   out,
		Filename:    "base.png",
		Opacity:     255,
	})
	require.Error(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOverlay_MissingBase(t *testing.T) {
	p := New(file.NewStorage(""))

	_, err := p.Overlay(context.Background(), model.OverlayJob{
		BasePath:    filepath.Join(t.TempDir(), "nope.png"),
		OverlayPath: filepath.Join(t.TempDir(), "nope.png"),
		OutputDir:   t.TempDir(),
		Filename:    "nope.png",
	})
	assert.Error(t, err)
}

func TestResize(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := saveImage(t, in, "a.png", gradient(100, 50))

	p := New(file.NewStorage(""), WithJPEGQuality(80))

	for _, name := range []string{"a.png", "a.jpg", "a.bmp", "a.tiff", "a.webp"} {
		t.Run(name, func(t *testing.T) {
			dst, err := p.Resize(context.Background(), model.ResizeJob{
				InputPath: src,
				OutputDir: out,
				Filename:  name,
				Width:     64,
				Height:    64,
			})
			require.NoError(t, err)

			var img image.Image
			if filepath.Ext(name) == ".webp" {
				f, err := os.Open(dst)
				require.NoError(t, err)
				defer f.Close()
				img, err = webp.Decode(f)
				require.NoError(t, err)
			} else {
				img, err = imaging.Open(dst)
				require.NoError(t, err)
			}

			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Equal(t, 64, img.Bounds().Dy())
		})
	}
}

func TestResize_UnsupportedOutput(t *testing.T) {
	in := t.TempDir()
	src := saveImage(t, in, "a.png", gradient(10, 10))

	_, err := New(file.NewStorage("")).Resize(context.Background(), model.ResizeJob{
		InputPath: src,
		OutputDir: t.TempDir(),
		Filename:  "a.xyz",
		Width:     5,
		Height:    5,
	})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/aliskhannn/image-batch/internal/model"
)

// ErrUnsupportedFormat is returned when an output filename has no known encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// fileStorage defines the interface for file storage.
// It allows saving files to a backend (e.g., local FS, S3, MinIO).
type fileStorage interface {
	Save(ctx context.Context, dir, filename string, src io.Reader) (string, error)
}

// Processor is responsible for executing image processing jobs:
// overlay composition and resizing.
type Processor struct {
	fileStorage fileStorage
	jpegQuality int
}

// Option configures a Processor.
type Option func(*Processor)

// WithJPEGQuality sets the quality used when a resized file is written as JPEG.
func WithJPEGQuality(q int) Option {
	return func(p *Processor) {
		p.jpegQuality = q
	}
}

// New creates a new Processor with the given file storage backend.
func New(fs fileStorage, opts ...Option) *Processor {
	p := &Processor{fileStorage: fs, jpegQuality: 95}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Overlay composites job.OverlayPath onto job.BasePath and saves the result
// as PNG under job.Filename in job.OutputDir. The filename is kept verbatim,
// extension included, even when it does not say ".png".
// It returns the location reported by the storage backend.
func (p *Processor) Overlay(ctx context.Context, job model.OverlayJob) (string, error) {
	base, err := LoadImage(job.BasePath)
	if err != nil {
		return "", fmt.Errorf("failed to load base image: %w", err)
	}

	top, err := LoadImage(job.OverlayPath)
	if err != nil {
		return "", fmt.Errorf("failed to load overlay image: %w", err)
	}

	combined := Composite(base, top, job.Opacity)

	// Encode into a buffer first so nothing is written when encoding fails.
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, combined, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode combined image: %w", err)
	}

	dst, err := p.fileStorage.Save(ctx, job.OutputDir, job.Filename, buf)
	if err != nil {
		return "", fmt.Errorf("failed to save combined image: %w", err)
	}

	return dst, nil
}

// Resize scales job.InputPath to exactly job.Width x job.Height and saves it
// under job.Filename, encoded according to the filename's extension.
func (p *Processor) Resize(ctx context.Context, job model.ResizeJob) (string, error) {
	src, err := LoadImage(job.InputPath)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	resized := imaging.Resize(src, job.Width, job.Height, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := p.encode(buf, resized, job.Filename); err != nil {
		return "", fmt.Errorf("failed to encode resized image: %w", err)
	}

	dst, err := p.fileStorage.Save(ctx, job.OutputDir, job.Filename, buf)
	if err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return dst, nil
}

// encode writes img to w in the format implied by filename.
func (p *Processor) encode(w io.Writer, img image.Image, filename string) error {
	if strings.EqualFold(filepath.Ext(filename), ".webp") {
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	return imaging.Encode(w, img, format, imaging.JPEGQuality(p.jpegQuality))
}

package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-batch/internal/config"
	"github.com/aliskhannn/image-batch/internal/model"
)

const (
	kindOverlay = "overlay"
	kindResize  = "resize"
)

// resizable lists the extensions picked up by the resize batch.
var resizable = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// processor runs a single job.
type processor interface {
	Overlay(ctx context.Context, job model.OverlayJob) (string, error)
	Resize(ctx context.Context, job model.ResizeJob) (string, error)
}

// storage prepares output destinations.
type storage interface {
	Prepare(ctx context.Context, dir string) error
}

// publisher reports per-pair results to an external consumer.
type publisher interface {
	Publish(ctx context.Context, res model.PairResult) error
}

// Runner drives overlay and resize batches sequentially, one file at a time.
// A failing pair is logged and recorded; it never aborts the batch.
type Runner struct {
	processor processor
	storage   storage
	publisher publisher
}

// NewRunner creates a Runner. pub may be nil when results are not published.
func NewRunner(p processor, s storage, pub publisher) *Runner {
	return &Runner{processor: p, storage: s, publisher: pub}
}

// Overlay composites every base/overlay pair found in cfg.BaseDir and
// cfg.OverlayDir into cfg.OutputDir.
//
// Only failing to prepare the output directory or to list an input directory
// aborts the batch. Pairs where either side is not a regular file are skipped
// silently; pairs that fail to process are logged and the batch moves on.
// A cancelled ctx stops the batch between pairs.
func (r *Runner) Overlay(ctx context.Context, cfg config.Overlay) (*model.BatchReport, error) {
	if cfg.Opacity < 0 || cfg.Opacity > 255 {
		return nil, fmt.Errorf("%w: opacity %d out of range", config.ErrInvalidConfig, cfg.Opacity)
	}

	if err := r.storage.Prepare(ctx, cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	bases, err := ListDir(cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	overlays, err := ListDir(cfg.OverlayDir)
	if err != nil {
		return nil, err
	}

	var pairs []model.Pair
	if cfg.Pairing == config.PairByStem {
		pairs = PairByStem(bases, overlays)
	} else {
		pairs = PairByPosition(bases, overlays)
	}

	report := newReport()
	zlog.Logger.Info().
		Str("run_id", report.RunID.String()).
		Int("bases", len(bases)).
		Int("overlays", len(overlays)).
		Int("pairs", len(pairs)).
		Str("pairing", cfg.Pairing).
		Msg("starting overlay batch")

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return r.finish(report), fmt.Errorf("overlay batch interrupted: %w", err)
		}

		res := model.PairResult{
			RunID:   report.RunID,
			Kind:    kindOverlay,
			Base:    pair.Base,
			Overlay: pair.Overlay,
		}

		basePath := filepath.Join(cfg.BaseDir, pair.Base)
		overlayPath := filepath.Join(cfg.OverlayDir, pair.Overlay)

		if !isRegularFile(basePath) || !isRegularFile(overlayPath) {
			res.Status = model.StatusSkipped
			zlog.Logger.Debug().Str("base", pair.Base).Str("overlay", pair.Overlay).Msg("skipped: not a regular file")
			r.record(ctx, report, res)
			continue
		}

		dst, err := r.processor.Overlay(ctx, model.OverlayJob{
			BasePath:    basePath,
			OverlayPath: overlayPath,
			OutputDir:   cfg.OutputDir,
			Filename:    pair.Base,
			Opacity:     uint8(cfg.Opacity),
		})
		if err != nil {
			res.Status = model.StatusFailed
			res.Error = err.Error()
			zlog.Logger.Error().Err(err).Str("base", pair.Base).Str("overlay", pair.Overlay).Msg("failed to process pair")
		} else {
			res.Status = model.StatusProcessed
			res.Output = dst
			zlog.Logger.Info().Str("base", pair.Base).Str("overlay", pair.Overlay).Msg("processed")
		}

		r.record(ctx, report, res)
	}

	return r.finish(report), nil
}

// Resize scales every image file of cfg.InputDir to cfg.Width x cfg.Height
// and writes it under the same name into cfg.OutputDir.
func (r *Runner) Resize(ctx context.Context, cfg config.Resize) (*model.BatchReport, error) {
	if err := r.storage.Prepare(ctx, cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	names, err := ListDir(cfg.InputDir)
	if err != nil {
		return nil, err
	}

	report := newReport()
	zlog.Logger.Info().
		Str("run_id", report.RunID.String()).
		Int("files", len(names)).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("starting resize batch")

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return r.finish(report), fmt.Errorf("resize batch interrupted: %w", err)
		}

		path := filepath.Join(cfg.InputDir, name)
		if !resizable[strings.ToLower(filepath.Ext(name))] || !isRegularFile(path) {
			continue
		}

		res := model.PairResult{RunID: report.RunID, Kind: kindResize, Base: name}

		dst, err := r.processor.Resize(ctx, model.ResizeJob{
			InputPath: path,
			OutputDir: cfg.OutputDir,
			Filename:  name,
			Width:     cfg.Width,
			Height:    cfg.Height,
		})
		if err != nil {
			res.Status = model.StatusFailed
			res.Error = err.Error()
			zlog.Logger.Error().Err(err).Str("file", name).Msg("failed to resize")
		} else {
			res.Status = model.StatusProcessed
			res.Output = dst
			zlog.Logger.Info().Str("file", name).Str("output", dst).Msg("resized")
		}

		r.record(ctx, report, res)
	}

	return r.finish(report), nil
}

// record appends res to the report and publishes it. Publish errors are only logged.
func (r *Runner) record(ctx context.Context, report *model.BatchReport, res model.PairResult) {
	report.Results = append(report.Results, res)

	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, res); err != nil {
		zlog.Logger.Warn().Err(err).Str("base", res.Base).Msg("failed to publish result")
	}
}

func (r *Runner) finish(report *model.BatchReport) *model.BatchReport {
	report.FinishedAt = time.Now()

	zlog.Logger.Info().
		Str("run_id", report.RunID.String()).
		Int("processed", report.Count(model.StatusProcessed)).
		Int("skipped", report.Count(model.StatusSkipped)).
		Int("failed", report.Count(model.StatusFailed)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("batch finished")

	return report
}

func newReport() *model.BatchReport {
	return &model.BatchReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-batch/internal/batch"
	"github.com/aliskhannn/image-batch/internal/config"
	"github.com/aliskhannn/image-batch/internal/events"
	"github.com/aliskhannn/image-batch/internal/model"
	"github.com/aliskhannn/image-batch/internal/processor"
	"github.com/aliskhannn/image-batch/internal/storage/file"
	"github.com/aliskhannn/image-batch/internal/storage/object"
	"github.com/aliskhannn/image-batch/internal/training"
)

const usage = `usage: image-batch [--config path] <command>

commands:
  overlay   composite overlay images onto base images
  resize    resize every image of a directory
  train     run YOLOv5 training and plot its metrics
`

// storage is implemented by both the local and the MinIO backends.
type storage interface {
	Prepare(ctx context.Context, dir string) error
	Save(ctx context.Context, dir, filename string, src io.Reader) (string, error)
}

func main() {
	// Context & signals: a batch stops between pairs on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := pflag.StringP("config", "c", "./config/config.yml", "path to the YAML config file")
	pflag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad(*configPath)

	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		zlog.Logger.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, keeping default")
	}

	code := 0
	switch cmd := pflag.Arg(0); cmd {
	case "overlay":
		code = runOverlay(ctx, cfg)
	case "resize":
		code = runResize(ctx, cfg)
	case "train":
		runTrain(ctx, cfg)
	default:
		zlog.Logger.Error().Str("command", cmd).Msg("unknown command")
		pflag.Usage()
		code = 2
	}

	stop()
	os.Exit(code)
}

func runOverlay(ctx context.Context, cfg *config.Config) int {
	if err := cfg.ValidateOverlay(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid overlay config")
	}

	runner, closeFn := newRunner(ctx, cfg)
	defer closeFn()

	report, err := runner.Overlay(ctx, cfg.Overlay)
	return logReport(report, err)
}

func runResize(ctx context.Context, cfg *config.Config) int {
	if err := cfg.ValidateResize(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid resize config")
	}

	runner, closeFn := newRunner(ctx, cfg)
	defer closeFn()

	report, err := runner.Resize(ctx, cfg.Resize)
	return logReport(report, err)
}

func runTrain(ctx context.Context, cfg *config.Config) {
	if err := cfg.ValidateTraining(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid training config")
	}

	if err := training.NewTrainer(cfg.Training).Run(ctx); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("training failed")
	}
}

// newRunner wires storage, processor and the optional result publisher.
// The returned function closes the publisher.
func newRunner(ctx context.Context, cfg *config.Config) (*batch.Runner, func()) {
	st, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	p := processor.New(st, processor.WithJPEGQuality(cfg.Resize.JPEGQuality))

	if !cfg.Events.Enabled {
		return batch.NewRunner(p, st, nil), func() {}
	}

	// Retry strategy for publishing results to Kafka.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}
	pub := events.New(&cfg.Events, strategy)

	return batch.NewRunner(p, st, pub), func() {
		if err := pub.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
}

func newStorage(ctx context.Context, cfg config.Storage) (storage, error) {
	if cfg.Backend == config.BackendMinio {
		return object.NewStorage(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.BucketName, cfg.UseSSL)
	}

	return file.NewStorage(""), nil
}

// logReport logs the batch summary and returns the process exit code:
// 1 when the batch was aborted or interrupted, 0 otherwise.
func logReport(report *model.BatchReport, err error) int {
	if report != nil {
		zlog.Logger.Info().
			Str("run_id", report.RunID.String()).
			Int("processed", report.Count(model.StatusProcessed)).
			Int("skipped", report.Count(model.StatusSkipped)).
			Int("failed", report.Count(model.StatusFailed)).
			Msg("done")
	}

	if err != nil {
		zlog.Logger.Error().Err(err).Msg("batch aborted")
		return 1
	}

	return 0
}

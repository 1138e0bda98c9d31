package training

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-batch/internal/chart"
	"github.com/aliskhannn/image-batch/internal/config"
)

// Chart file names written next to results.csv.
const (
	LossChart    = "training_loss.png"
	MetricsChart = "validation_metrics.png"
	ResultsFile  = "results.csv"
)

// executor runs an external command to completion.
type executor func(ctx context.Context, name string, args ...string) error

// Trainer wraps the YOLOv5 training script and plots its reported metrics.
type Trainer struct {
	cfg     config.Training
	execute executor
}

// NewTrainer creates a Trainer that runs the script as a child process whose
// output is passed through to this process.
func NewTrainer(cfg config.Training) *Trainer {
	return &Trainer{cfg: cfg, execute: runCommand}
}

// Command returns the argv used to start training.
func (t *Trainer) Command() []string {
	return []string{
		t.cfg.Python,
		filepath.Join(t.cfg.YOLOv5Dir, "train.py"),
		"--img", strconv.Itoa(t.cfg.ImgSize),
		"--batch", strconv.Itoa(t.cfg.BatchSize),
		"--epochs", strconv.Itoa(t.cfg.Epochs),
		"--data", t.cfg.DataYAML,
		"--weights", t.cfg.Weights,
		"--project", t.cfg.Project,
		"--name", t.cfg.Name,
		"--device", t.cfg.Device,
	}
}

// OutputDir is where the script writes results.csv and where charts go.
func (t *Trainer) OutputDir() string {
	return filepath.Join(t.cfg.Project, t.cfg.Name)
}

// Run starts training and waits for it. When training succeeds and the script
// left a results.csv behind, the loss and validation charts are written next
// to it. A missing results file or a results file without the expected
// columns is logged and does not fail the run.
func (t *Trainer) Run(ctx context.Context) error {
	info, err := os.Stat(t.cfg.YOLOv5Dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("yolov5 directory not found: %s", t.cfg.YOLOv5Dir)
	}

	cmd := t.Command()
	zlog.Logger.Info().Str("command", strings.Join(cmd, " ")).Msg("running training")

	if err := t.execute(ctx, cmd[0], cmd[1:]...); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	resultsPath := filepath.Join(t.OutputDir(), ResultsFile)
	f, err := os.Open(resultsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zlog.Logger.Warn().Str("path", resultsPath).Msg("results file not found, skipping charts")
			return nil
		}
		return fmt.Errorf("failed to open results: %w", err)
	}
	defer f.Close()

	results, err := ParseResults(f)
	if err != nil {
		if errors.Is(err, ErrMissingColumn) || errors.Is(err, ErrNoResults) {
			zlog.Logger.Warn().Err(err).Str("path", resultsPath).Msg("cannot plot results")
			return nil
		}
		return fmt.Errorf("failed to parse results: %w", err)
	}

	zlog.Logger.Debug().Strs("columns", results.Columns()).Int("epochs", results.Len()).Msg("results parsed")

	paths, err := t.Plot(results, t.OutputDir())
	if err != nil {
		return err
	}

	for _, p := range paths {
		zlog.Logger.Info().Str("path", p).Msg("chart saved")
	}

	return nil
}

// Plot writes the training loss chart and the validation metrics chart into
// dir, creating it if needed, and returns the written paths. A chart whose
// columns hold no numeric values is logged and left out.
func (t *Trainer) Plot(results *Results, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	epochs := results.Column(ColEpoch)

	charts := []struct {
		file  string
		chart chart.LineChart
	}{
		{
			file: LossChart,
			chart: chart.LineChart{
				Title:  "Training loss",
				XLabel: "Epoch",
				YLabel: "Loss",
				Series: []chart.Series{
					{Name: "train loss", X: epochs, Y: results.Column(ColTrainLoss)},
				},
			},
		},
		{
			file: MetricsChart,
			chart: chart.LineChart{
				Title:  "Validation metrics",
				XLabel: "Epoch",
				YLabel: "Value",
				Series: []chart.Series{
					{Name: "precision", X: epochs, Y: results.Column(ColPrecision)},
					{Name: "recall", X: epochs, Y: results.Column(ColRecall)},
					{Name: "mAP@0.5", X: epochs, Y: results.Column(ColMAP50)},
					{Name: "mAP@0.5:0.95", X: epochs, Y: results.Column(ColMAP5095)},
				},
			},
		},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		c.chart.FontPath = t.cfg.FontPath

		path := filepath.Join(dir, c.file)
		if err := c.chart.Save(path); err != nil {
			if errors.Is(err, chart.ErrNoData) {
				zlog.Logger.Warn().Str("chart", c.file).Msg("no numeric values to plot, skipping chart")
				continue
			}
			return paths, fmt.Errorf("failed to plot %s: %w", c.file, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

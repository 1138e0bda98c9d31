package config

import (
	"fmt"
	"os"
)

// ValidateOverlay checks the overlay section before a batch is started.
func (c *Config) ValidateOverlay() error {
	o := c.Overlay

	if err := requireDir("overlay.base_dir", o.BaseDir); err != nil {
		return err
	}
	if err := requireDir("overlay.overlay_dir", o.OverlayDir); err != nil {
		return err
	}
	if o.OutputDir == "" {
		return fmt.Errorf("%w: overlay.output_dir is empty", ErrInvalidConfig)
	}
	if o.Opacity < 0 || o.Opacity > 255 {
		return fmt.Errorf("%w: overlay.opacity must be between 0 and 255, got %d", ErrInvalidConfig, o.Opacity)
	}
	if o.Pairing != PairByPosition && o.Pairing != PairByStem {
		return fmt.Errorf("%w: overlay.pairing must be %q or %q, got %q", ErrInvalidConfig, PairByPosition, PairByStem, o.Pairing)
	}

	return c.validateStorage()
}

// ValidateResize checks the resize section before a batch is started.
func (c *Config) ValidateResize() error {
	r := c.Resize

	if err := requireDir("resize.input_dir", r.InputDir); err != nil {
		return err
	}
	if r.OutputDir == "" {
		return fmt.Errorf("%w: resize.output_dir is empty", ErrInvalidConfig)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: resize dimensions must be positive, got %dx%d", ErrInvalidConfig, r.Width, r.Height)
	}
	if r.JPEGQuality < 1 || r.JPEGQuality > 100 {
		return fmt.Errorf("%w: resize.jpeg_quality must be between 1 and 100", ErrInvalidConfig)
	}

	return c.validateStorage()
}

// ValidateTraining checks the training section.
func (c *Config) ValidateTraining() error {
	t := c.Training

	required := map[string]string{
		"training.python":     t.Python,
		"training.yolov5_dir": t.YOLOv5Dir,
		"training.data_yaml":  t.DataYAML,
		"training.weights":    t.Weights,
		"training.project":    t.Project,
		"training.name":       t.Name,
		"training.device":     t.Device,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, key)
		}
	}

	if t.Epochs <= 0 || t.BatchSize <= 0 || t.ImgSize <= 0 {
		return fmt.Errorf("%w: training epochs, batch_size and img_size must be positive", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage

	switch s.Backend {
	case BackendLocal:
	case BackendMinio:
		if s.Endpoint == "" || s.BucketName == "" {
			return fmt.Errorf("%w: storage.endpoint and storage.bucket_name are required for minio", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidConfig, s.Backend)
	}

	if c.Events.Enabled && (len(c.Events.Brokers) == 0 || c.Events.Topic == "") {
		return fmt.Errorf("%w: events.brokers and events.topic are required when events are enabled", ErrInvalidConfig)
	}

	return nil
}

func requireDir(key, path string) error {
	if path == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, key)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s: %s is not a directory", ErrInvalidConfig, key, path)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// ErrInvalidConfig is returned by Validate when a setting is out of range or missing.
var ErrInvalidConfig = errors.New("invalid config")

// Pairing modes for the overlay batch.
const (
	PairByPosition = "position"
	PairByStem     = "stem"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// Config holds the main configuration for the application.
type Config struct {
	Log      Log      `mapstructure:"log"`
	Overlay  Overlay  `mapstructure:"overlay"`
	Resize   Resize   `mapstructure:"resize"`
	Training Training `mapstructure:"training"`
	Storage  Storage  `mapstructure:"storage"`
	Events   Events   `mapstructure:"events"`
	Retry    Retry    `mapstructure:"retry"`
}

// Log holds logging configuration.
type Log struct {
	Level string `mapstructure:"level"` // zerolog level name: debug, info, warn, error
}

// Overlay holds the overlay batch parameters.
type Overlay struct {
	BaseDir    string `mapstructure:"base_dir"`
	OverlayDir string `mapstructure:"overlay_dir"`
	OutputDir  string `mapstructure:"output_dir"`
	Opacity    int    `mapstructure:"opacity"` // 0..255, applied to every pair
	Pairing    string `mapstructure:"pairing"` // "position" or "stem"
}

// Resize holds the resize batch parameters.
type Resize struct {
	InputDir    string `mapstructure:"input_dir"`
	OutputDir   string `mapstructure:"output_dir"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
}

// Training holds the parameters passed to the YOLOv5 training script.
type Training struct {
	Python    string `mapstructure:"python"`
	YOLOv5Dir string `mapstructure:"yolov5_dir"`
	DataYAML  string `mapstructure:"data_yaml"`
	Weights   string `mapstructure:"weights"`
	Epochs    int    `mapstructure:"epochs"`
	BatchSize int    `mapstructure:"batch_size"`
	ImgSize   int    `mapstructure:"img_size"`
	Project   string `mapstructure:"project"`
	Name      string `mapstructure:"name"`
	Device    string `mapstructure:"device"`
	FontPath  string `mapstructure:"font_path"` // optional TTF for chart labels
}

// Storage holds configuration for the output storage backend.
type Storage struct {
	Backend    string `mapstructure:"backend"` // "local" or "minio"
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Events holds configuration for publishing per-pair results to Kafka.
type Events struct {
	Enabled bool     `mapstructure:"enabled"`
	Topic   string   `mapstructure:"topic"`   // Kafka topic name
	Brokers []string `mapstructure:"brokers"` // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("overlay.output_dir", "output")
	v.SetDefault("overlay.opacity", 128)
	v.SetDefault("overlay.pairing", PairByPosition)

	v.SetDefault("resize.output_dir", "resized")
	v.SetDefault("resize.width", 64)
	v.SetDefault("resize.height", 64)
	v.SetDefault("resize.jpeg_quality", 95)

	v.SetDefault("training.python", "python3")
	v.SetDefault("training.yolov5_dir", "yolov5")
	v.SetDefault("training.data_yaml", "data.yaml")
	v.SetDefault("training.weights", "yolov5s.pt")
	v.SetDefault("training.epochs", 100)
	v.SetDefault("training.batch_size", 16)
	v.SetDefault("training.img_size", 640)
	v.SetDefault("training.project", "runs/train")
	v.SetDefault("training.name", "yolov5s_experiment")
	v.SetDefault("training.device", "0")

	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("events.topic", "image-batch.results")

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 200*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)
}

// bindEnv binds environment variables to Viper keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"log.level":           "LOG_LEVEL",
		"overlay.base_dir":    "OVERLAY_BASE_DIR",
		"overlay.overlay_dir": "OVERLAY_OVERLAY_DIR",
		"overlay.output_dir":  "OVERLAY_OUTPUT_DIR",
		"overlay.opacity":     "OVERLAY_OPACITY",
		"storage.endpoint":    "MINIO_ENDPOINT",
		"storage.access_key":  "MINIO_ACCESS_KEY",
		"storage.secret_key":  "MINIO_SECRET_KEY",
		"storage.bucket_name": "MINIO_BUCKET",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the configuration from the YAML file at path, applying defaults
// and environment overrides. A missing file is not an error: defaults and
// environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			zlog.Logger.Warn().Str("path", path).Msg("config file not found, using defaults")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}

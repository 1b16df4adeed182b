package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config defines the runtime configuration for the attendance kiosk.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Camera  CameraConfig  `yaml:"camera"`
	Detect  DetectConfig  `yaml:"detect"`
	Overlay OverlayConfig `yaml:"overlay"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CameraConfig struct {
	// Source is an MJPEG URL (http/https), a still image path (file:// or bare path),
	// or device://N for a local capture device.
	Source string `yaml:"source" validate:"required"`
	MaxFPS int    `yaml:"max_fps" validate:"gte=1,lte=120"`
	// StreamInterval paces the MJPEG display stream.
	StreamInterval time.Duration `yaml:"stream_interval"`
}

type DetectConfig struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	Interval       time.Duration `yaml:"interval" validate:"gt=0"`
	JPEGQuality    int           `yaml:"jpeg_quality" validate:"gte=1,lte=100"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	// DiscardStale drops responses that arrive after Stop or out of request order.
	DiscardStale bool `yaml:"discard_stale"`
}

type OverlayConfig struct {
	Width       int     `yaml:"width" validate:"gte=1"`
	Height      int     `yaml:"height" validate:"gte=1"`
	Color       string  `yaml:"color" validate:"required,hexcolor"`
	StrokeWidth float64 `yaml:"stroke_width" validate:"gt=0"`
	FontSize    float64 `yaml:"font_size" validate:"gt=0"`
}

type UIConfig struct {
	Title     string `yaml:"title"`
	AssetsDir string `yaml:"assets_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
	File  string `yaml:"file"`
}

// Default returns a config matching the browser kiosk behaviour.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Camera: CameraConfig{
			Source:         "http://localhost:8081/stream",
			MaxFPS:         15,
			StreamInterval: 66 * time.Millisecond,
		},
		Detect: DetectConfig{
			BaseURL:        "http://localhost:5000",
			Interval:       1000 * time.Millisecond,
			JPEGQuality:    80,
			RequestTimeout: 10 * time.Second,
			DiscardStale:   true,
		},
		Overlay: OverlayConfig{
			Width:       640,
			Height:      480,
			Color:       "#00FF00",
			StrokeWidth: 2,
			FontSize:    16,
		},
		UI: UIConfig{
			Title: "Face Attendance System",
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
	}
}

// LoadFile overlays YAML settings from path onto cfg. Unset keys keep their value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays KIOSK_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	envString("KIOSK_ADDR", &cfg.Server.Addr)
	envString("KIOSK_CAMERA_SOURCE", &cfg.Camera.Source)
	envInt("KIOSK_CAMERA_MAX_FPS", &cfg.Camera.MaxFPS)
	envString("KIOSK_DETECTOR_URL", &cfg.Detect.BaseURL)
	envDuration("KIOSK_DETECT_INTERVAL", &cfg.Detect.Interval)
	envInt("KIOSK_JPEG_QUALITY", &cfg.Detect.JPEGQuality)
	envDuration("KIOSK_REQUEST_TIMEOUT", &cfg.Detect.RequestTimeout)
	envBool("KIOSK_DISCARD_STALE", &cfg.Detect.DiscardStale)
	envString("KIOSK_OVERLAY_COLOR", &cfg.Overlay.Color)
	envString("KIOSK_ASSETS_DIR", &cfg.UI.AssetsDir)
	envString("KIOSK_LOG_LEVEL", &cfg.Log.Level)
	envString("KIOSK_LOG_FILE", &cfg.Log.File)
	envBool("KIOSK_LOG_COLOR", &cfg.Log.Color)
}

var validate = validator.New()

// Validate checks value ranges and required fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envString, envInt, envDuration and envBool leave dst untouched when the
// variable is unset, empty, or unparsable.
func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}

func envBool(key string, dst *bool) {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = b
	}
}

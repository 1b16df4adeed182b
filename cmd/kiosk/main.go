package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dj-oyu/face-attendance-kiosk/internal/config"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
)

var (
	configPath string
	logLevel   string
	logFile    string
	noColor    bool
	detectURL  string
	cameraSrc  string
)

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Face recognition attendance kiosk",
	Long: `kiosk serves a single-page attendance kiosk: live camera video with face
boxes, Start/Stop/Reset controls and the attendance table. Frames are sent
to a remote face detection service, which owns recognition and attendance.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		// .env file is optional
		_ = godotenv.Load()
	})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, silent)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotated file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().StringVar(&detectURL, "detector", "", "Face detection service base URL")
	rootCmd.PersistentFlags().StringVar(&cameraSrc, "camera", "", "Camera source (http(s) MJPEG URL, image path, device://N)")
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		if err := config.LoadFile(&cfg, configPath); err != nil {
			return cfg, err
		}
	}
	config.ApplyEnv(&cfg)

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("no-color") {
		cfg.Log.Color = !noColor
	}
	if flags.Changed("detector") {
		cfg.Detect.BaseURL = detectURL
	}
	if flags.Changed("camera") {
		cfg.Camera.Source = cameraSrc
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func initLogger(cfg config.Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.InitWithOptions(logger.Options{
		Level:    level,
		Output:   os.Stderr,
		UseColor: cfg.Log.Color,
		File:     cfg.Log.File,
	})
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dj-oyu/face-attendance-kiosk/internal/kiosk"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
	"github.com/dj-oyu/face-attendance-kiosk/internal/metrics"
)

var (
	serveAddr     string
	serveInterval time.Duration
	serveQuality  int
	serveAssets   string
	serveAutoRun  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk web page",
	Long: `Acquire the camera and serve the kiosk page until interrupted.
A camera that cannot be opened is logged; the page still runs without video.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "Capture interval while checking")
	serveCmd.Flags().IntVar(&serveQuality, "quality", 0, "JPEG quality of submitted frames (1-100)")
	serveCmd.Flags().StringVar(&serveAssets, "assets", "", "Directory overriding the embedded CSS/JS")
	serveCmd.Flags().BoolVar(&serveAutoRun, "start", false, "Start checking immediately")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if flags.Changed("interval") {
		cfg.Detect.Interval = serveInterval
	}
	if flags.Changed("quality") {
		cfg.Detect.JPEGQuality = serveQuality
	}
	if flags.Changed("assets") {
		cfg.UI.AssetsDir = serveAssets
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shell, err := kiosk.New(cfg, metrics.New())
	if err != nil {
		return err
	}
	defer func() {
		if err := shell.Close(); err != nil {
			logger.Error("Main", "Shell close error: %v", err)
		}
	}()

	// The page runs without video when the camera cannot be opened.
	_ = shell.Open(ctx)
	if serveAutoRun {
		shell.StartChecking()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           shell.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Main", "Kiosk listening on %s (detector %s, camera %s)",
			cfg.Server.Addr, cfg.Detect.BaseURL, cfg.Camera.Source)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Main", "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Streaming clients end when the shell closes; do that before waiting on
	// the HTTP server so shutdown does not stall on /stream and /api/events.
	closeErr := shell.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return closeErr
}

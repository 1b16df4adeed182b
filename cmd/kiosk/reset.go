package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dj-oyu/face-attendance-kiosk/internal/detector"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset attendance on the detection service",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Close()

	timeout := cfg.Detect.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client := detector.NewClient(cfg.Detect.BaseURL, cfg.Detect.RequestTimeout)
	if err := client.ResetAttendance(ctx); err != nil {
		logger.Error("Main", "Error resetting attendance: %v", err)
		return err
	}
	fmt.Println("Attendance reset")
	return nil
}

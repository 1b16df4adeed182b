package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dj-oyu/face-attendance-kiosk/internal/camera"
	"github.com/dj-oyu/face-attendance-kiosk/internal/kiosk"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

var (
	detectOut  string
	detectWait time.Duration
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Capture one frame and submit it for face detection",
	Long: `Acquire the camera, capture a single frame, submit it to the detection
service and print the attendance records and face boxes it returns.`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&detectOut, "out", "o", "", "Write the annotated frame to this JPEG file")
	detectCmd.Flags().DurationVar(&detectWait, "wait", 5*time.Second, "How long to wait for the first camera frame")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Close()

	shell, err := kiosk.New(cfg, nil)
	if err != nil {
		return err
	}
	defer shell.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), detectWait)
	defer cancel()
	if err := shell.Open(ctx); err != nil {
		return err
	}
	if err := waitForFrame(ctx, shell.Camera().Surface()); err != nil {
		return err
	}

	resp, res, err := shell.Checker().CheckOnce(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Faces: %d\n", len(res.Boxes))
	for _, box := range res.Boxes {
		fmt.Printf("  %-20s %v\n", box.Label, box.Rect)
	}
	printRecords(resp.Records())

	if detectOut != "" {
		data, err := shell.Snapshot(90)
		if err != nil {
			return err
		}
		if err := os.WriteFile(detectOut, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Annotated frame written to %s\n", detectOut)
	}
	return nil
}

func waitForFrame(ctx context.Context, surface *camera.Surface) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if w, h := surface.Dimensions(); w > 0 && h > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for camera frame: %w", camera.ErrNoFrame)
		case <-ticker.C:
		}
	}
}

func printRecords(records []types.AttendanceRecord) {
	fmt.Printf("Attendance: %d\n", len(records))
	for _, r := range records {
		fmt.Printf("  %-20s %s\n", r.Name, r.Time)
	}
}

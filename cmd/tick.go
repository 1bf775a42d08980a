package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/core/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run a single scheduling tick and print the report",
	Long: `Runs one tick to completion and prints the per-stage counters as
JSON. Meant for external schedulers (cron, Kubernetes CronJob) and for
debugging; the serve command normally drives ticks internally.`,
	Run: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
}

func runTick(_ *cobra.Command, _ []string) {
	cfg := config.Global
	defer StopApp()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Engine.TickCadenceMinutes)*time.Minute)
	defer cancel()

	report, err := engineUsecase.Tick(ctx)
	if err != nil {
		logrus.Fatalf("tick failed: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logrus.Fatalf("failed to encode report: %v", err)
	}
	fmt.Println(string(out))
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"registration-analytics/config"
	"registration-analytics/internal/app"
	"registration-analytics/internal/logger"
	"registration-analytics/internal/pipeline"
	"registration-analytics/pkg/utils"
)

func main() {
	cohort := pflag.StringP("cohort", "c", "", "cohort for the cohort tables (default: first cohort)")
	format := pflag.StringP("format", "f", pipeline.FormatCSV, "export format: csv or json")
	out := pflag.StringP("out", "o", "", "output directory (default: OUTPUT_DIR)")
	pflag.Parse()

	if err := run(*cohort, *format, *out); err != nil {
		fmt.Fprintln(os.Stderr, "snapshot:", err)
		os.Exit(1)
	}
}

func run(cohort, format, out string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogConfig()); err != nil {
		return err
	}
	if out == "" {
		out = cfg.OutputDir
	}
	log := logger.GetAppLogger()

	em, err := pipeline.NewExportManager(format, utils.NewOutputManager(out))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("Failed to release resources")
		}
	}()

	snap, err := a.Service.Refresh(ctx)
	if err != nil {
		return err
	}
	if cohort == "" && len(snap.Cohorts) > 0 {
		cohort = snap.Cohorts[0]
	}

	dash, err := pipeline.BuildDashboard(snap.Records, cohort)
	if err != nil {
		return err
	}

	results := em.ExportTables(ctx, snap.RunID, dash.Tables)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	log.WithFields(logrus.Fields{
		"run_id":   snap.RunID,
		"cohort":   cohort,
		"loaded":   snap.Total,
		"accepted": len(snap.Records),
		"rejected": len(snap.Rejected),
		"tables":   len(results),
		"failed":   failed,
	}).Info("Snapshot exported")

	if failed > 0 {
		return fmt.Errorf("%d of %d tables failed to export", failed, len(results))
	}
	return nil
}

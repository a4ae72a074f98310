package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/ride-metrics/internal/analysis"
	"github.com/lowaak/ride-metrics/internal/config"
	"github.com/lowaak/ride-metrics/internal/dashboard"
	"github.com/lowaak/ride-metrics/internal/engine"
	"github.com/lowaak/ride-metrics/internal/fields"
	"github.com/lowaak/ride-metrics/internal/history"
	"github.com/lowaak/ride-metrics/internal/sim"
)

// defaultFieldIDs is the field grid shown when no layout is configured.
var defaultFieldIDs = []string{
	"power_current",
	"power_3s",
	"power_normalized",
	"power_zone",
	"hr_current",
	"hr_zone",
	"cadence_current",
	"speed_current",
	"intensity_factor",
	"tss_live",
	"work_kj",
	"elapsed_time",
}

func main() {
	var (
		configPath  = pflag.String("config", config.DefaultPath(), "path to the YAML config file")
		historyDir  = pflag.String("history", "", "directory of .fit files (overrides config)")
		ftpWatts    = pflag.Float64("ftp", 0, "functional threshold power in watts (overrides config)")
		simPower    = pflag.Float64("sim-power", 180, "base power for the simulated rider")
		controlPort = pflag.Int("control-port", 0, "HTTP port for the simulator control API (0 disables)")
		logFile     = pflag.String("log-file", "", "log file path (overrides config)")
		headless    = pflag.Bool("headless", false, "print live fields to stdout instead of the TUI")
		analyze     = pflag.Bool("analyze", false, "summarize ride history and exit")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ride-metrics: %v\n", err)
		os.Exit(1)
	}
	if *ftpWatts > 0 {
		cfg.Rider.FTPWatts = *ftpWatts
	}
	if *historyDir != "" {
		cfg.HistoryDir = *historyDir
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logger := log.New(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}, "", log.LstdFlags|log.Lmicroseconds)
	logger.Printf("Main: starting, tick interval %s, FTP %.0f W", cfg.TickInterval, cfg.Rider.FTPWatts)

	if *analyze {
		if err := runAnalysis(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "ride-metrics: %v\n", err)
			os.Exit(1)
		}
		return
	}

	eng := engine.New(fields.Catalog(logger), logger, engine.Options{
		TickInterval: cfg.TickInterval,
	})
	defer eng.Shutdown()
	eng.SetSettings(cfg.Settings())

	rider := sim.NewRider(eng, logger, sim.Options{
		BasePowerWatts: *simPower,
		BaseCadenceRPM: 90,
		ControlPort:    *controlPort,
	})
	rider.Start()
	defer rider.Shutdown()

	eng.Start()

	if *headless {
		runHeadless(eng, logger)
		return
	}

	app := tview.NewApplication()
	dash := dashboard.New(app, eng, logger, defaultFieldIDs)
	stopDash := dash.Start()
	defer stopDash()

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(dash.Root(), true).Run(); err != nil {
		logger.Printf("Main: UI error: %v", err)
		fmt.Fprintf(os.Stderr, "ride-metrics: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("Main: shutting down")
}

// runHeadless prints a one-line snapshot of the default fields every
// second until interrupted.
func runHeadless(eng *engine.Engine, logger *log.Logger) {
	eng.SetActiveFields(defaultFieldIDs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			logger.Printf("Main: interrupt received")
			return
		case <-ticker.C:
			for _, id := range []string{"power_current", "power_3s", "hr_current", "cadence_current", "tss_live"} {
				fmt.Printf("%s=%s  ", id, eng.FormatField(id, "--"))
			}
			fmt.Println()
		}
	}
}

// runAnalysis loads the ride history and prints the fitness trend,
// weekly load, power curve, and personal records.
func runAnalysis(cfg config.Config, logger *log.Logger) error {
	if cfg.HistoryDir == "" {
		return fmt.Errorf("analysis needs a history directory (--history or history_dir in config)")
	}

	workouts, err := history.LoadDir(cfg.HistoryDir, cfg.Rider.FTPWatts, logger)
	if err != nil {
		return err
	}
	if len(workouts) == 0 {
		fmt.Println("No workouts found.")
		return nil
	}
	fmt.Printf("Loaded %d workouts from %s\n\n", len(workouts), cfg.HistoryDir)

	samples := analysis.DailyLoads(workouts)
	trend := analysis.FitnessTrend(samples, time.Now())

	fmt.Println("Fitness trend (last 14 days):")
	start := len(trend) - 14
	if start < 0 {
		start = 0
	}
	for _, p := range trend[start:] {
		fmt.Printf("  %s  CTL %5.1f  ATL %5.1f  TSB %+5.1f\n",
			p.Date.Format("2006-01-02"), p.CTL, p.ATL, p.TSB)
	}

	fmt.Println("\nWeekly load:")
	weeks := analysis.WeeklyLoads(samples)
	if len(weeks) > 8 {
		weeks = weeks[len(weeks)-8:]
	}
	for _, w := range weeks {
		fmt.Printf("  %d-W%02d  TSS %6.0f\n", w.Year, w.Week, w.TSS)
	}

	fmt.Println("\nPower curve:")
	for _, p := range analysis.PowerCurve(workouts) {
		fmt.Printf("  %6s  %4.0f W\n", durationLabel(p.DurationSeconds), p.BestWatts)
	}

	fmt.Println("\nPersonal records (newest first):")
	for _, r := range analysis.DisplayOrder(analysis.PersonalRecords(workouts)) {
		fmt.Printf("  %s  %-14s %6.0f  %s\n",
			r.Date.Format("2006-01-02"), r.Metric, r.Value, r.DeltaLabel())
	}
	return nil
}

func durationLabel(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}

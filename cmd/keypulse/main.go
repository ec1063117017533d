package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"keypulse-go/internal/config"
	"keypulse-go/internal/constants"
	"keypulse-go/internal/logging"
	"keypulse-go/internal/monitor"
	"keypulse-go/internal/server"
	"keypulse-go/internal/store"
)

// Exit codes form the contract with external schedulers and alerting:
// 0 normal, 1 store unreadable (or startup failure), 2 every probed
// credential ended unhealthy.
const (
	exitOK           = 0
	exitStoreError   = 1
	exitAllUnhealthy = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "keypulse.yaml", "Path to configuration file")
	status := flag.Bool("status", false, "Dry run: probe and classify without mutating the store")
	verbose := flag.Bool("verbose", false, "Echo each credential result to stdout")
	threshold := flag.Float64("threshold", 0, "Depletion threshold override")
	daemon := flag.Bool("daemon", false, "Run continuously on an interval with a status API")
	interval := flag.Int("interval", 0, "Daemon check interval in minutes")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		return exitStoreError
	}
	if *debug {
		cfg.Debug = true
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threshold":
			cfg.Monitor.Threshold = *threshold
		case "interval":
			if *interval > 0 {
				cfg.Daemon.IntervalMin = *interval
			}
		}
	})

	if err := cfg.ExpandPaths(); err != nil {
		log.WithError(err).Error("invalid configuration paths")
		return exitStoreError
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Error("failed to configure logging")
		return exitStoreError
	}

	st, err := store.New(cfg)
	if err != nil {
		log.WithError(err).Error("failed to build store backend")
		return exitStoreError
	}
	defer func() { _ = st.Close() }()

	mon := monitor.NewFromConfig(cfg, st, *status, *verbose)

	if *daemon {
		return runDaemon(cfg, *configPath, st, mon, *status, *verbose)
	}
	return runOnce(mon)
}

func runOnce(mon *monitor.Monitor) int {
	report, err := mon.Run(context.Background())
	if err != nil {
		if errors.Is(err, store.ErrStoreRead) {
			log.WithError(err).Error("credential store unreadable")
			return exitStoreError
		}
		log.WithError(err).Error("monitoring run failed")
		return exitStoreError
	}

	printReport(report)

	if report.AllUnhealthy {
		log.Error("every probed credential is unhealthy")
		return exitAllUnhealthy
	}
	return exitOK
}

// runDaemon loops the check on a fixed interval, serves the status API,
// and hot-reloads monitor settings when the config file changes. Exit
// codes carry no per-run meaning here; the status API and metrics do.
func runDaemon(cfg *config.Config, configPath string, st store.Store, mon *monitor.Monitor, dryRun, verbose bool) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(mon, cfg.Store.StateFile, cfg.Debug)
	go func() {
		if err := srv.Start(cfg.Daemon.ListenAddr); err != nil {
			log.WithError(err).Error("status server failed")
		}
	}()

	if err := config.Watch(ctx, configPath, func(next *config.Config) {
		if next.Store.Backend != cfg.Store.Backend || next.Store.Path != cfg.Store.Path || next.Store.RedisAddr != cfg.Store.RedisAddr {
			log.Warn("store settings changed; restart required to apply them")
		}
		if err := next.ExpandPaths(); err != nil {
			log.WithError(err).Warn("reloaded config has invalid paths; ignoring")
			return
		}
		mon.Reconfigure(monitor.OptionsFromConfig(next, st, dryRun, verbose))
	}); err != nil {
		log.WithError(err).Warn("config watcher unavailable; edits require a restart")
	}

	interval := time.Duration(cfg.Daemon.IntervalMin) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.WithField("interval", interval).Info("daemon started")

	runAndLog := func() {
		report, err := mon.Run(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("scheduled run failed")
			}
			return
		}
		log.WithFields(log.Fields{
			"total":    report.Total,
			"healthy":  report.Healthy,
			"depleted": report.Depleted,
			"errors":   report.Errors,
		}).Info("scheduled run completed")
	}
	runAndLog()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runAndLog()
		case <-sig:
			log.Info("shutdown signal received")
			cancel()

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
			defer cancelShutdown()
			_ = srv.Shutdown(shutdownCtx)
			time.Sleep(constants.ServerGracefulWait)
			return exitOK
		}
	}
}

func printReport(report *monitor.Report) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.WithError(err).Warn("failed to encode summary report")
		return
	}
	fmt.Println(string(data))
}

package monitor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"keypulse-go/internal/config"
	"keypulse-go/internal/constants"
	"keypulse-go/internal/monitoring"
	"keypulse-go/internal/probe"
	"keypulse-go/internal/store"
)

// Options wire a Monitor together.
type Options struct {
	Store  store.Store
	Prober *probe.Prober

	Provider        string
	Threshold       float64
	DisableDuration time.Duration
	ProbeDelay      time.Duration
	StateFile       string

	// DryRun probes and classifies but never touches the store.
	DryRun bool

	// Verbose echoes each per-credential line to stdout as it happens.
	Verbose bool
}

// Monitor probes every credential of a provider namespace sequentially
// and self-heals their disablement state in the store.
type Monitor struct {
	opts    Options
	limiter *rate.Limiter
	history *History

	// runMu serializes runs: the daemon ticker and the manual trigger
	// endpoint must never mutate the store concurrently with each other.
	runMu sync.Mutex
}

func New(opts Options) *Monitor {
	if opts.DisableDuration <= 0 {
		opts.DisableDuration = constants.DefaultDisableDuration
	}
	delay := opts.ProbeDelay
	if delay <= 0 {
		delay = constants.DefaultProbeDelay
	}
	return &Monitor{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		history: NewHistory(),
	}
}

// NewFromConfig builds a Monitor over st with the config's probe and
// monitor settings.
func NewFromConfig(cfg *config.Config, st store.Store, dryRun, verbose bool) *Monitor {
	return New(OptionsFromConfig(cfg, st, dryRun, verbose))
}

// OptionsFromConfig maps runtime configuration onto monitor Options.
func OptionsFromConfig(cfg *config.Config, st store.Store, dryRun, verbose bool) Options {
	return Options{
		Store:           st,
		Prober:          probe.New(cfg.Probe),
		Provider:        cfg.Monitor.Provider,
		Threshold:       cfg.Monitor.Threshold,
		DisableDuration: time.Duration(cfg.Monitor.DisableDurationSec) * time.Second,
		ProbeDelay:      time.Duration(cfg.Monitor.ProbeDelayMS) * time.Millisecond,
		StateFile:       cfg.Store.StateFile,
		DryRun:          dryRun,
		Verbose:         verbose,
	}
}

func (m *Monitor) History() *History {
	return m.history
}

// Reconfigure swaps the monitor's settings between runs, keeping run
// history intact. Used by the daemon's config hot-reload; a store backend
// change still requires a restart.
func (m *Monitor) Reconfigure(opts Options) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if opts.DisableDuration <= 0 {
		opts.DisableDuration = constants.DefaultDisableDuration
	}
	delay := opts.ProbeDelay
	if delay <= 0 {
		delay = constants.DefaultProbeDelay
	}
	m.opts = opts
	m.limiter = rate.NewLimiter(rate.Every(delay), 1)
}

// Run executes one full monitoring pass: list, probe each credential with
// the enforced inter-probe delay, classify, and apply disable/re-enable
// transitions. The returned error is non-nil only for store-level
// failures; individual probe failures are folded into the report as
// unknowns.
func (m *Monitor) Run(ctx context.Context) (*Report, error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	started := time.Now()

	records, err := m.opts.Store.List(ctx, m.opts.Provider)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Timestamp: started.UTC(),
		Threshold: m.opts.Threshold,
		DryRun:    m.opts.DryRun,
		Total:     len(records),
	}

	for _, rec := range records {
		if err := m.limiter.Wait(ctx); err != nil {
			return report, err
		}

		probeStart := time.Now()
		res := m.opts.Prober.Probe(ctx, rec.APIKey)
		monitoring.ProbeDuration.Observe(time.Since(probeStart).Seconds())

		outcome := probe.Classify(res, m.opts.Threshold)
		monitoring.ProbesTotal.WithLabelValues(string(outcome)).Inc()

		cr := CredentialReport{
			ID:         rec.ID,
			Balance:    res.Balance,
			Status:     string(outcome),
			Healthy:    outcome == probe.OutcomeHealthy,
			HTTPStatus: res.HTTPStatus,
			Error:      res.Err,
		}

		switch outcome {
		case probe.OutcomeUnknown:
			report.Errors++
			log.WithFields(log.Fields{
				"credential":  rec.ID,
				"http_status": res.HTTPStatus,
				"error":       res.Err,
			}).Warn("probe inconclusive; credential state left as-is")

		case probe.OutcomeDepleted:
			report.Depleted++
			if !m.opts.DryRun {
				if err := m.opts.Store.Disable(ctx, rec.ID, m.opts.DisableDuration); err != nil {
					log.WithError(err).WithField("credential", rec.ID).Error("failed to disable credential")
				} else {
					cr.Action = "disabled"
					monitoring.DisablesTotal.Inc()
				}
			}
			log.WithFields(log.Fields{
				"credential": rec.ID,
				"balance":    res.Balance,
				"threshold":  m.opts.Threshold,
				"dry_run":    m.opts.DryRun,
			}).Info("credential depleted")

		case probe.OutcomeHealthy:
			report.Healthy++
			if !m.opts.DryRun && rec.Health.BillingDisabled() {
				if err := m.opts.Store.Reenable(ctx, rec.ID); err != nil {
					log.WithError(err).WithField("credential", rec.ID).Error("failed to re-enable credential")
				} else {
					cr.Action = "reenabled"
					monitoring.ReenablesTotal.Inc()
				}
			}
			log.WithFields(log.Fields{
				"credential": rec.ID,
				"balance":    res.Balance,
			}).Info("credential healthy")
		}

		if m.opts.Verbose {
			fmt.Fprintf(os.Stdout, "%s: %s balance=%.4f\n", rec.ID, outcome, res.Balance)
		}

		report.Credentials = append(report.Credentials, cr)
	}

	// Unknowns are excluded from the all-unhealthy signal: the condition
	// fires only when at least one credential was classified and none
	// came back healthy.
	report.AllUnhealthy = report.Depleted > 0 && report.Healthy == 0
	report.DurationMS = time.Since(started).Milliseconds()

	monitoring.LastRunCredentials.WithLabelValues("healthy").Set(float64(report.Healthy))
	monitoring.LastRunCredentials.WithLabelValues("depleted").Set(float64(report.Depleted))
	monitoring.LastRunCredentials.WithLabelValues("unknown").Set(float64(report.Errors))
	monitoring.LastRunTimestamp.Set(float64(time.Now().Unix()))

	m.history.Add(report)

	if m.opts.StateFile != "" {
		if err := report.Save(m.opts.StateFile); err != nil {
			log.WithError(err).Warn("failed to persist run snapshot")
		}
	}

	return report, nil
}

package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Poolchaos/personalfit/internal/api"
	"github.com/Poolchaos/personalfit/internal/app/adherence"
	"github.com/Poolchaos/personalfit/internal/app/challenge"
	"github.com/Poolchaos/personalfit/internal/app/correlation"
	"github.com/Poolchaos/personalfit/internal/app/engagement"
	"github.com/Poolchaos/personalfit/internal/health"
	_ "github.com/Poolchaos/personalfit/internal/infra/metrics" // Register Prometheus metrics
	"github.com/Poolchaos/personalfit/internal/infra/sqlite"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// Daemon is the core PersonalFit runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Log    *logger.Logger
	Server *api.Server
	cancel context.CancelFunc

	Ledger      *engagement.Ledger
	Tracker     *challenge.Tracker
	Adherence   *adherence.Service
	Correlation *correlation.Service
	Health      *health.Checker
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	dataDir := cfg.Data.Dir
	if dataDir == "" {
		dataDir = personalfitHome()
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	loc := cfg.Gamification.Location()

	// Engagement ledger (XP, levels, streaks, achievements)
	ledger := engagement.NewLedger(db, cfg.Gamification.RewardConfig(), loc, cfg.Gamification.StreakFreezes, log)

	// Daily challenge tracker, routing rewards through the ledger
	tracker := challenge.NewTracker(db, ledger, loc, log)

	// Adherence and correlation analytics. Adherence feeds perfect-day
	// counters back into the ledger for achievement checks.
	adh := adherence.NewService(db, ledger, loc, log)
	corr := correlation.NewService(db, loc, log)

	// Health checker
	checker := health.NewChecker(db, dataDir)

	// HTTP API server
	srv := api.NewServer(api.Config{
		CORSOrigins:           cfg.API.CORSOrigins,
		AdherenceWindowDays:   cfg.Analytics.AdherenceWindowDays,
		CorrelationWindowDays: cfg.Analytics.CorrelationWindowDays,
	}, db, ledger, tracker, adh, corr, checker, log)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Enabled {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:      cfg,
		DB:          db,
		Log:         log,
		Server:      srv,
		Ledger:      ledger,
		Tracker:     tracker,
		Adherence:   adh,
		Correlation: corr,
		Health:      checker,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	// Periodic batch correlation runs (if configured)
	if interval := parseDuration(d.Config.Analytics.BatchInterval, 0); interval > 0 {
		go d.runBatchAnalysis(ctx, interval)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("PersonalFit serving on http://%s\n", addr)
	if d.Config.Telemetry.Enabled {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// runBatchAnalysis recomputes all correlations on a fixed interval.
func (d *Daemon) runBatchAnalysis(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Correlation.AnalyzeAll(ctx, d.DB, d.Config.Analytics.CorrelationWindowDays, time.Now()); err != nil {
				d.Log.Error("batch correlation run failed", "error", err)
			}
		}
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Log != nil {
		d.Log.Sync()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

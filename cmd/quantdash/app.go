package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"QuantDash/internal/calculator"
	"QuantDash/internal/collector"
	"QuantDash/internal/config"
	"QuantDash/internal/logger"
	"QuantDash/internal/metrics"
	"QuantDash/internal/prefs"
	"QuantDash/internal/recorder"
	"QuantDash/internal/scheduler"
	"QuantDash/internal/server"
	"QuantDash/internal/tui"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	fetcher  collector.Fetcher
	recorder recorder.Recorder
	metrics  *metrics.Recorder
	closers  []func() error
}

func bootstrap(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, logCloser, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	a.closers = append(a.closers, logCloser.Close)

	if flags.mock {
		a.fetcher = collector.NewMockFetcher(150)
	} else {
		a.fetcher = collector.NewHTTPFetcher(cfg.Service.BaseURL, cfg.Service.Timeout, cfg.Service.Proxy)
	}
	log.Info().Str("fetcher", a.fetcher.Name()).Str("base_url", cfg.Service.BaseURL).Msg("data source ready")

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}
	// recorder closes before the log file
	a.closers = append([]func() error{a.recorder.Close}, a.closers...)
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}
}

// options merges the configured dashboard defaults with saved preferences.
func (a *app) options() scheduler.Options {
	d := a.cfg.Dashboard
	opts := scheduler.Options{
		Symbol:                 d.Symbol,
		AutoRefresh:            d.AutoRefresh,
		RefreshIntervalSeconds: d.RefreshIntervalSeconds,
		Theme:                  scheduler.Theme(d.Theme),
		TimeRange:              calculator.TimeRange(d.TimeRange),
		Horizon:                d.Horizon,
		PaperTradeDays:         d.PaperTradeDays,
		StartingEquity:         d.StartingEquity,
		Watchlist:              d.Watchlist,
		Pulse:                  d.Pulse,
	}

	saved, ok, err := prefs.Load(a.cfg.PrefsFile)
	if err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.PrefsFile).Msg("ignoring saved preferences")
		return opts
	}
	if !ok {
		return opts
	}
	if saved.Symbol != "" {
		opts.Symbol = saved.Symbol
	}
	opts.AutoRefresh = saved.AutoRefresh
	if saved.RefreshIntervalSeconds > 0 {
		opts.RefreshIntervalSeconds = saved.RefreshIntervalSeconds
	}
	if t := scheduler.Theme(saved.Theme); t.Valid() {
		opts.Theme = t
	}
	if r := calculator.TimeRange(saved.TimeRange); r.Valid() {
		opts.TimeRange = r
	}
	a.log.Info().Str("path", a.cfg.PrefsFile).Time("saved_at", saved.UpdatedAt).Msg("restored preferences")
	return opts
}

func (a *app) savePrefs(snap scheduler.Session) {
	err := prefs.Save(a.cfg.PrefsFile, &prefs.Settings{
		Symbol:                 snap.Symbol,
		AutoRefresh:            snap.AutoRefresh,
		RefreshIntervalSeconds: snap.RefreshIntervalSeconds,
		Theme:                  string(snap.Theme),
		TimeRange:              string(snap.TimeRange),
	})
	if err != nil {
		a.log.Error().Err(err).Msg("save preferences")
	}
}

func (a *app) newScheduler(ctx context.Context) *scheduler.Scheduler {
	return scheduler.NewScheduler(ctx, a.fetcher, a.recorder, a.metrics, a.log, a.options())
}

func (a *app) stopServer(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		a.log.Error().Err(err).Msg("stop http server")
	}
}

func runDashboard(ctx context.Context, flags *rootFlags) error {
	a, err := bootstrap(flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := a.newScheduler(ctx)
	sched.Start()

	if a.cfg.Server.Enabled {
		srv := server.New(sched, a.metrics, a.log, a.cfg.Server.Addr)
		srv.Start()
		defer a.stopServer(srv)
	}

	go sched.Refresh(ctx)

	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = "."
	}
	model := tui.New(ctx, sched, a.log, exportDir)
	_, runErr := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()

	a.savePrefs(sched.Snapshot())
	sched.Stop()
	if runErr != nil {
		return fmt.Errorf("dashboard: %w", runErr)
	}
	a.log.Info().Msg("dashboard closed")
	return nil
}

func runServe(ctx context.Context, flags *rootFlags) error {
	a, err := bootstrap(flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := a.newScheduler(ctx)
	sched.Start()
	srv := server.New(sched, a.metrics, a.log, a.cfg.Server.Addr)
	srv.Start()
	go sched.Refresh(ctx)

	a.log.Info().Str("addr", a.cfg.Server.Addr).Msg("quantdash is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		a.log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	a.stopServer(srv)
	a.savePrefs(sched.Snapshot())
	cancel()
	sched.Stop()
	a.log.Info().Msg("quantdash stopped")
	return nil
}

func runExport(ctx context.Context, flags *rootFlags, symbol, out string) error {
	a, err := bootstrap(flags)
	if err != nil {
		return err
	}
	defer a.close()

	symbol = scheduler.NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("export: empty symbol")
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Service.Timeout)
	defer cancel()
	start := time.Now()
	history, err := a.fetcher.FetchHistory(ctx, symbol)
	a.metrics.ObserveRequest("history", symbol, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	body := calculator.ToCSV(symbol, history)
	if out == "" {
		_, err := fmt.Fprint(os.Stdout, body)
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	a.log.Info().Str("symbol", symbol).Int("points", len(history)).Str("path", out).Msg("history exported")
	return nil
}

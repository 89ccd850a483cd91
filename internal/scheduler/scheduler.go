package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"QuantDash/internal/calculator"
	"QuantDash/internal/collector"
	"QuantDash/internal/metrics"
	"QuantDash/internal/recorder"
)

// Defaults applied to manual operations.
const (
	DefaultHorizon        = 1
	DefaultPaperTradeDays = 10
	DefaultPulse          = 600 * time.Millisecond

	// predictionFactor is the prediction timer period as a multiple of the base interval.
	predictionFactor = 3
)

// Options configures a Scheduler. Zero values fall back to the package defaults.
type Options struct {
	Symbol                 string
	AutoRefresh            bool
	RefreshIntervalSeconds int
	Theme                  Theme
	TimeRange              calculator.TimeRange
	Horizon                int
	PaperTradeDays         int
	StartingEquity         float64
	Watchlist              []string
	Pulse                  time.Duration
}

// Scheduler owns the dashboard Session and drives its refresh timers.
type Scheduler struct {
	fetcher  collector.Fetcher
	recorder recorder.Recorder
	metrics  *metrics.Recorder
	log      zerolog.Logger
	opts     Options
	id       string

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	// unit is the length of one "second" of refresh interval.
	unit time.Duration

	mu        sync.Mutex
	session   Session
	manualSeq uint64

	timerMu  sync.Mutex
	cron     *cron.Cron
	baseID   cron.EntryID
	predID   cron.EntryID
	started  bool
	stopped  bool
	installs int

	subsMu sync.Mutex
	subs   map[chan Session]struct{}
	closed bool
}

// NewScheduler creates a Scheduler. rec and m may be nil.
func NewScheduler(ctx context.Context, fetcher collector.Fetcher, rec recorder.Recorder, m *metrics.Recorder, log zerolog.Logger, opts Options) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.PaperTradeDays <= 0 {
		opts.PaperTradeDays = DefaultPaperTradeDays
	}
	if opts.StartingEquity <= 0 {
		opts.StartingEquity = calculator.DefaultStartingEquity
	}
	if opts.Pulse <= 0 {
		opts.Pulse = DefaultPulse
	}
	if !opts.Theme.Valid() {
		opts.Theme = ThemeDark
	}
	if !opts.TimeRange.Valid() {
		opts.TimeRange = calculator.DefaultTimeRange
	}

	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	return &Scheduler{
		fetcher:  fetcher,
		recorder: rec,
		metrics:  m,
		log:      log.With().Str("component", "scheduler").Logger(),
		opts:     opts,
		id:       id,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
		unit:     time.Second,
		cron:     cron.New(),
		session: Session{
			ID:                     id,
			Symbol:                 NormalizeSymbol(opts.Symbol),
			AutoRefresh:            opts.AutoRefresh,
			RefreshIntervalSeconds: ClampInterval(opts.RefreshIntervalSeconds),
			Theme:                  opts.Theme,
			TimeRange:              opts.TimeRange,
		},
		subs: make(map[chan Session]struct{}),
	}
}

// Options returns the effective options.
func (s *Scheduler) Options() Options { return s.opts }

// Start starts the cron runner and installs the timers if auto-refresh is on.
// A stopped Scheduler cannot be restarted.
func (s *Scheduler) Start() {
	s.timerMu.Lock()
	if s.started || s.stopped {
		s.timerMu.Unlock()
		return
	}
	s.started = true
	s.cron.Start()
	s.rebuildTimersLocked()
	s.timerMu.Unlock()
	s.log.Info().Str("symbol", s.Snapshot().Symbol).Msg("scheduler started")
}

// Stop removes both timers, stops cron and cancels in-flight background requests.
// Subscriber channels are closed.
func (s *Scheduler) Stop() {
	s.timerMu.Lock()
	if s.stopped {
		s.timerMu.Unlock()
		return
	}
	s.stopped = true
	s.removeTimersLocked()
	wasStarted := s.started
	s.started = false
	s.timerMu.Unlock()

	s.cancel()
	if wasStarted {
		<-s.cron.Stop().Done()
	}

	s.subsMu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.closed = true
	s.subsMu.Unlock()
	s.log.Info().Msg("scheduler stopped")
}

// TimersActive reports whether the base and prediction timers are installed.
func (s *Scheduler) TimersActive() bool {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return s.baseID != 0 && s.predID != 0
}

// rebuildTimers tears down and recreates both timers from the current session.
func (s *Scheduler) rebuildTimers() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.rebuildTimersLocked()
}

func (s *Scheduler) rebuildTimersLocked() {
	s.removeTimersLocked()
	if !s.started {
		return
	}
	snap := s.Snapshot()
	if !snap.AutoRefresh {
		s.log.Debug().Msg("auto refresh off, timers removed")
		return
	}
	base := time.Duration(snap.RefreshIntervalSeconds) * s.unit
	s.baseID = s.cron.Schedule(every(base), cron.FuncJob(s.baseTick))
	s.predID = s.cron.Schedule(every(predictionFactor*base), cron.FuncJob(s.predictionTick))
	s.installs++
	s.log.Debug().
		Dur("base", base).
		Dur("prediction", predictionFactor*base).
		Msg("timers installed")
}

func (s *Scheduler) removeTimersLocked() {
	if s.baseID != 0 {
		s.cron.Remove(s.baseID)
		s.baseID = 0
	}
	if s.predID != 0 {
		s.cron.Remove(s.predID)
		s.predID = 0
	}
}

// every is a fixed-period cron schedule. cron.Every rounds to whole seconds,
// which is too coarse for the test time unit.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

func (s *Scheduler) baseTick() {
	if s.ctx.Err() != nil {
		return
	}
	s.Refresh(s.ctx)
}

func (s *Scheduler) predictionTick() {
	if s.ctx.Err() != nil {
		return
	}
	snap := s.Snapshot()
	if snap.Prediction == nil {
		return
	}
	horizon := snap.PredictionHorizon
	if horizon <= 0 {
		horizon = s.opts.Horizon
	}
	if err := s.predict(s.ctx, snap.Symbol, horizon, true); err != nil {
		return
	}
	if s.Snapshot().Symbol == snap.Symbol {
		s.FetchHistory(s.ctx)
	}
}

// Snapshot returns a copy of the current session.
func (s *Scheduler) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// View derives the display values of the current session.
func (s *Scheduler) View() View {
	return s.Snapshot().Derive(s.now(), s.opts.StartingEquity)
}

// update applies fn under the session lock and notifies subscribers if fn
// reports a change.
func (s *Scheduler) update(fn func(*Session) bool) {
	s.mu.Lock()
	changed := fn(&s.session)
	snap := s.session
	s.mu.Unlock()
	if changed {
		s.publish(snap)
	}
}

// Subscribe returns a channel that receives the latest session after every change.
// Slow readers only see the most recent snapshot.
func (s *Scheduler) Subscribe() <-chan Session {
	ch := make(chan Session, 1)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Scheduler) Unsubscribe(ch <-chan Session) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for c := range s.subs {
		if c == ch {
			delete(s.subs, c)
			close(c)
			return
		}
	}
}

func (s *Scheduler) publish(snap Session) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// SetAutoRefresh turns the timers on or off.
func (s *Scheduler) SetAutoRefresh(on bool) {
	changed := false
	s.update(func(ss *Session) bool {
		changed = ss.AutoRefresh != on
		ss.AutoRefresh = on
		return changed
	})
	if changed {
		s.log.Info().Bool("auto_refresh", on).Msg("auto refresh changed")
		s.rebuildTimers()
	}
}

// SetRefreshIntervalSeconds sets the base timer period, clamped to [1,60].
func (s *Scheduler) SetRefreshIntervalSeconds(n int) {
	n = ClampInterval(n)
	changed := false
	s.update(func(ss *Session) bool {
		changed = ss.RefreshIntervalSeconds != n
		ss.RefreshIntervalSeconds = n
		return changed
	})
	if changed {
		s.log.Info().Int("interval", n).Msg("refresh interval changed")
		s.rebuildTimers()
	}
}

// SetSymbol switches the active symbol. It does not fetch; an empty symbol is ignored.
func (s *Scheduler) SetSymbol(symbol string) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return
	}
	s.update(func(ss *Session) bool {
		if ss.Symbol == symbol {
			return false
		}
		ss.Symbol = symbol
		return true
	})
}

// SetTheme selects a theme; unknown values are ignored.
func (s *Scheduler) SetTheme(t Theme) {
	if !t.Valid() {
		return
	}
	s.update(func(ss *Session) bool {
		changed := ss.Theme != t
		ss.Theme = t
		return changed
	})
}

// ToggleTheme flips between dark and light.
func (s *Scheduler) ToggleTheme() {
	s.update(func(ss *Session) bool {
		if ss.Theme == ThemeDark {
			ss.Theme = ThemeLight
		} else {
			ss.Theme = ThemeDark
		}
		return true
	})
}

// SetTimeRange selects the history window; unknown values are ignored.
func (s *Scheduler) SetTimeRange(r calculator.TimeRange) {
	if !r.Valid() {
		return
	}
	s.update(func(ss *Session) bool {
		changed := ss.TimeRange != r
		ss.TimeRange = r
		return changed
	})
}

package main

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"QuantDash/internal/calculator"
	"QuantDash/internal/config"
	"QuantDash/internal/prefs"
	"QuantDash/internal/scheduler"
)

func testApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.PrefsFile = filepath.Join(dir, "prefs.json")
	return &app{cfg: cfg, log: zerolog.Nop()}
}

func TestOptions_ConfigDefaults(t *testing.T) {
	a := testApp(t)
	a.cfg.Dashboard.Symbol = "NVDA"

	opts := a.options()
	if opts.Symbol != "NVDA" || opts.Theme != scheduler.ThemeDark || opts.TimeRange != calculator.Range1M {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestOptions_SavedPrefsWin(t *testing.T) {
	a := testApp(t)
	a.savePrefs(scheduler.Session{
		Symbol:                 "TSLA",
		AutoRefresh:            false,
		RefreshIntervalSeconds: 12,
		Theme:                  scheduler.ThemeLight,
		TimeRange:              calculator.Range1Y,
	})

	opts := a.options()
	if opts.Symbol != "TSLA" || opts.AutoRefresh || opts.RefreshIntervalSeconds != 12 {
		t.Errorf("prefs not applied: %+v", opts)
	}
	if opts.Theme != scheduler.ThemeLight || opts.TimeRange != calculator.Range1Y {
		t.Errorf("theme/range not applied: %+v", opts)
	}
}

func TestOptions_InvalidPrefsIgnored(t *testing.T) {
	a := testApp(t)
	if err := prefs.Save(a.cfg.PrefsFile, &prefs.Settings{AutoRefresh: true, Theme: "neon", TimeRange: "5Y"}); err != nil {
		t.Fatal(err)
	}

	opts := a.options()
	if opts.Symbol != a.cfg.Dashboard.Symbol {
		t.Errorf("empty saved symbol should keep config: %s", opts.Symbol)
	}
	if opts.Theme != scheduler.Theme(a.cfg.Dashboard.Theme) || opts.TimeRange != calculator.TimeRange(a.cfg.Dashboard.TimeRange) {
		t.Errorf("invalid saved values should be ignored: %+v", opts)
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "serve", "export"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if f := root.PersistentFlags().Lookup("mock"); f == nil {
		t.Error("missing --mock flag")
	}
}

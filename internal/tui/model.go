package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"QuantDash/internal/calculator"
	"QuantDash/internal/palette"
	"QuantDash/internal/scheduler"
)

// paletteFirstRow is the screen row of the first palette candidate: border, title, input.
const paletteFirstRow = 3

type (
	sessionMsg scheduler.Session
	closedMsg  struct{}
	tickMsg    time.Time
	doneMsg    struct {
		id  string
		err error
	}
	exportedMsg struct {
		path string
		err  error
	}
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx       context.Context
	sched     *scheduler.Scheduler
	palette   *palette.Palette
	sub       <-chan scheduler.Session
	log       zerolog.Logger
	exportDir string
	now       func() time.Time

	view   scheduler.View
	styles styles
	width  int
	height int

	query         textinput.Model
	symbol        textinput.Model
	editingSymbol bool
	status        string
	queued        []string
}

// New creates the dashboard model. CSV exports are written to exportDir.
func New(ctx context.Context, sched *scheduler.Scheduler, log zerolog.Logger, exportDir string) *Model {
	query := textinput.New()
	query.Placeholder = "Type a command or go:SYMBOL"
	query.Prompt = "> "
	query.CharLimit = 32

	symbol := textinput.New()
	symbol.Placeholder = "Symbol"
	symbol.Prompt = "Symbol: "
	symbol.CharLimit = 12

	m := &Model{
		ctx:       ctx,
		sched:     sched,
		sub:       sched.Subscribe(),
		log:       log.With().Str("component", "tui").Logger(),
		exportDir: exportDir,
		now:       time.Now,
		query:     query,
		symbol:    symbol,
	}
	m.palette = palette.New(palette.DefaultCatalog, func(id string) {
		m.queued = append(m.queued, id)
	})
	m.refreshView()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForSession(m.sub), tickEvery(time.Second), textinput.Blink)
}

func waitForSession(sub <-chan scheduler.Session) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return closedMsg{}
		}
		return sessionMsg(snap)
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refreshView() {
	m.view = m.sched.View()
	m.styles = newStyles(m.view.Theme)
}

// execute runs a scheduler command off the UI goroutine.
func (m *Model) execute(id string) tea.Cmd {
	ctx, sched := m.ctx, m.sched
	return func() tea.Msg {
		return doneMsg{id: id, err: sched.Execute(ctx, id)}
	}
}

func (m *Model) export() tea.Cmd {
	snap := m.sched.Snapshot()
	path := filepath.Join(m.exportDir, calculator.CSVFilename(snap.Symbol))
	body := calculator.ToCSV(snap.Symbol, snap.History)
	return func() tea.Msg {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return exportedMsg{path: path, err: err}
			}
		}
		return exportedMsg{path: path, err: os.WriteFile(path, []byte(body), 0o644)}
	}
}

// drainQueued turns commands dispatched by the palette into tea commands.
func (m *Model) drainQueued() tea.Cmd {
	if len(m.queued) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.queued))
	for _, id := range m.queued {
		cmds = append(cmds, m.execute(id))
	}
	m.queued = nil
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case sessionMsg:
		m.refreshView()
		return m, waitForSession(m.sub)

	case closedMsg:
		return m, tea.Quit

	case tickMsg:
		m.refreshView()
		return m, tickEvery(time.Second)

	case doneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.log.Warn().Err(msg.err).Str("command", msg.id).Msg("command failed")
		}
		m.refreshView()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Export failed: %v", msg.err)
			m.log.Error().Err(msg.err).Msg("csv export")
		} else {
			m.status = "Exported " + msg.path
			m.log.Info().Str("path", msg.path).Msg("csv exported")
		}
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+k" {
			m.handlePalette(palette.Toggle())
			return m, m.drainQueued()
		}
		if m.palette.IsOpen() {
			return m, m.handlePaletteKey(msg)
		}
		if m.editingSymbol {
			return m, m.handleSymbolKey(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

// handlePalette applies ev and keeps the query input in step with the palette.
func (m *Model) handlePalette(ev palette.Event) {
	m.palette.Handle(ev)
	st := m.palette.State()
	if st.Open {
		m.query.Focus()
	} else {
		m.query.Blur()
	}
	if m.query.Value() != st.Query {
		m.query.SetValue(st.Query)
	}
}

func (m *Model) handlePaletteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.handlePalette(palette.Escape())
	case "up":
		m.handlePalette(palette.Up())
	case "down":
		m.handlePalette(palette.Down())
	case "enter":
		m.handlePalette(palette.Enter())
	default:
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		if m.query.Value() != m.palette.State().Query {
			m.handlePalette(palette.Input(m.query.Value()))
		}
		return tea.Batch(cmd, m.drainQueued())
	}
	return m.drainQueued()
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !m.palette.IsOpen() || msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return nil
	}
	idx := msg.Y - paletteFirstRow
	if idx < 0 || idx >= len(m.palette.Visible()) {
		return nil
	}
	m.handlePalette(palette.Click(idx))
	return m.drainQueued()
}

func (m *Model) handleSymbolKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.editingSymbol = false
		m.symbol.Blur()
		return nil
	case "enter":
		m.editingSymbol = false
		m.symbol.Blur()
		sym := scheduler.NormalizeSymbol(m.symbol.Value())
		if sym == "" {
			return nil
		}
		return m.execute(palette.GoCommand(sym))
	}
	var cmd tea.Cmd
	m.symbol, cmd = m.symbol.Update(msg)
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.status = ""
	switch msg.String() {
	case "q":
		return tea.Quit
	case "p":
		return m.execute(palette.CmdPredict)
	case "s":
		return m.execute(palette.CmdSignal)
	case "t":
		return m.execute(palette.CmdPaper)
	case "h":
		return m.execute(palette.CmdHistory)
	case "f":
		return m.execute(scheduler.CmdRefresh)
	case "r":
		return m.execute(scheduler.CmdRisk)
	case "o":
		return m.execute(scheduler.CmdOptimize)
	case "b":
		return m.execute(scheduler.CmdBacktest)
	case "e":
		return m.export()
	case "a":
		m.sched.SetAutoRefresh(!m.sched.Snapshot().AutoRefresh)
	case "+", "=":
		m.sched.SetRefreshIntervalSeconds(m.sched.Snapshot().RefreshIntervalSeconds + 1)
	case "-":
		m.sched.SetRefreshIntervalSeconds(m.sched.Snapshot().RefreshIntervalSeconds - 1)
	case "1", "2", "3", "4", "5":
		m.sched.SetTimeRange(calculator.TimeRanges[msg.String()[0]-'1'])
	case "d":
		m.sched.ToggleTheme()
	case "/":
		m.editingSymbol = true
		m.symbol.SetValue("")
		m.symbol.Focus()
		return textinput.Blink
	}
	m.refreshView()
	return nil
}

package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists dashboard activity to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP surface read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			session_id      TEXT,
			symbol          TEXT NOT NULL,
			horizon         INTEGER,
			last_close      REAL,
			predicted_price REAL,
			note            TEXT,
			background      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_ts ON predictions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			session_id       TEXT,
			symbol           TEXT NOT NULL,
			horizon          INTEGER,
			signal           TEXT,
			confidence       REAL,
			confidence_label TEXT,
			context          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS paper_trades (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			session_id      TEXT,
			symbol          TEXT NOT NULL,
			days            INTEGER,
			trades          INTEGER,
			final_value     REAL,
			return_pct      REAL,
			simulated_final REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_ts ON paper_trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS refreshes (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			session_id       TEXT,
			symbol           TEXT NOT NULL,
			history_points   INTEGER,
			indicator_points INTEGER,
			last_price       REAL,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refreshes_ts ON refreshes(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPrediction(evt *PredictionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := evt.Prediction
	_, err := r.db.Exec(`INSERT INTO predictions
		(timestamp, session_id, symbol, horizon, last_close, predicted_price, note, background)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Symbol, evt.Horizon,
		p.LastClose, p.PredictedPrice, p.ConfidenceNote, evt.Background,
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := evt.Signal
	var confidence any
	if s.Confidence != nil {
		confidence = *s.Confidence
	}
	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, session_id, symbol, horizon, signal, confidence, confidence_label, context)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Symbol, evt.Horizon,
		string(s.Signal), confidence, evt.ConfidenceLabel, s.Context,
	)
	return err
}

func (r *SQLiteRecorder) RecordPaperTrade(evt *PaperTradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := evt.Result
	_, err := r.db.Exec(`INSERT INTO paper_trades
		(timestamp, session_id, symbol, days, trades, final_value, return_pct, simulated_final)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Symbol, evt.Days,
		len(res.Trades), res.FinalValue, res.ReturnPct, evt.SimulatedFinal,
	)
	return err
}

func (r *SQLiteRecorder) RecordRefresh(evt *RefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refreshes
		(timestamp, session_id, symbol, history_points, indicator_points, last_price, error)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Symbol,
		evt.HistoryPoints, evt.IndicatorPoints, evt.LastPrice, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

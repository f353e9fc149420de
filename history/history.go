// Package history persists finished analyses in SQLite so operators can
// backfill dashboards and inspect score drift. Storage only; there is no
// browsing surface here.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded analysis.
type Entry struct {
	TraceID       string
	Prompt        string
	Status        string
	AccuracyScore float64
	PromptQuality float64
	TotalTokens   int
	LatencyMs     float64
	CostUSD       float64
	Optimized     bool
	CreatedAt     time.Time
}

// Stats summarizes the recorded analyses.
type Stats struct {
	Count        int
	MeanAccuracy float64
	StdDev       float64
}

// Store is a SQLite-backed record of analysis results.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New creates the analysis_history table and index if they don't exist,
// then returns a Store backed by the provided *sql.DB.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id       TEXT    NOT NULL,
			prompt         TEXT    NOT NULL,
			status         TEXT    NOT NULL,
			accuracy_score REAL    NOT NULL,
			prompt_quality REAL    NOT NULL,
			total_tokens   INTEGER NOT NULL,
			latency_ms     REAL    NOT NULL,
			cost_usd       REAL    NOT NULL,
			optimized      INTEGER NOT NULL,
			created_at     INTEGER NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("create analysis_history table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analysis_history_ts
		ON analysis_history (created_at)
	`); err != nil {
		return nil, fmt.Errorf("create analysis_history index: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one analysis row.
func (s *Store) Record(e Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO analysis_history
		 (trace_id, prompt, status, accuracy_score, prompt_quality, total_tokens, latency_ms, cost_usd, optimized, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TraceID, e.Prompt, e.Status, e.AccuracyScore, e.PromptQuality,
		e.TotalTokens, e.LatencyMs, e.CostUSD, boolInt(e.Optimized), createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record analysis: %w", err)
	}
	return nil
}

// Recent returns the last n analyses, most recent first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT trace_id, prompt, status, accuracy_score, prompt_quality, total_tokens, latency_ms, cost_usd, optimized, created_at
		 FROM analysis_history
		 ORDER BY created_at DESC
		 LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var optimized int
		var createdAt int64
		if err := rows.Scan(&e.TraceID, &e.Prompt, &e.Status, &e.AccuracyScore, &e.PromptQuality,
			&e.TotalTokens, &e.LatencyMs, &e.CostUSD, &optimized, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Optimized = optimized != 0
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent rows: %w", err)
	}
	return entries, nil
}

// Stats computes the count, mean, and population standard deviation of all
// recorded accuracy scores.
func (s *Store) Stats() (Stats, error) {
	rows, err := s.db.Query(`SELECT accuracy_score FROM analysis_history`)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return Stats{}, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, v)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("stats rows: %w", err)
	}

	st := Stats{Count: len(scores)}
	if st.Count == 0 {
		return st, nil
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	st.MeanAccuracy = sum / float64(st.Count)
	var variance float64
	for _, v := range scores {
		d := v - st.MeanAccuracy
		variance += d * d
	}
	st.StdDev = math.Sqrt(variance / float64(st.Count))
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package archive persists completed tuning runs to SQLite so results
// survive the process and can be inspected later.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/liqcal/calibration-core/internal/trial"
	"github.com/liqcal/calibration-core/internal/tuning"
	"github.com/liqcal/calibration-core/pkg/params"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	pipette            TEXT NOT NULL,
	liquid             TEXT NOT NULL,
	strategy           TEXT NOT NULL,
	budget             INTEGER NOT NULL,
	trials             INTEGER NOT NULL,
	successes          INTEGER NOT NULL,
	failures           INTEGER NOT NULL,
	best_trial         INTEGER,
	best_score         REAL,
	best_params        TEXT,
	seed_params        TEXT NOT NULL,
	converged          INTEGER NOT NULL DEFAULT 0,
	convergence_reason TEXT NOT NULL DEFAULT '',
	final_rate         REAL NOT NULL,
	duration_ms        INTEGER NOT NULL,
	created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	run_id        TEXT NOT NULL,
	idx           INTEGER NOT NULL,
	params        TEXT NOT NULL,
	score         REAL,
	failed        INTEGER NOT NULL DEFAULT 0,
	fail_reason   TEXT NOT NULL DEFAULT '',
	phase         TEXT NOT NULL DEFAULT '',
	learning_rate REAL NOT NULL,
	PRIMARY KEY (run_id, idx),
	FOREIGN KEY (run_id) REFERENCES runs(id)
);
`

// RunSummary is one archived run's header row.
type RunSummary struct {
	ID                string
	Pipette           string
	Liquid            string
	Strategy          string
	Budget            int
	Trials            int
	Successes         int
	Failures          int
	BestTrial         int
	BestScore         float64
	BestParams        params.Vector
	BestFound         bool
	SeedParams        params.Vector
	Converged         bool
	ConvergenceReason string
	FinalRate         float64
	Duration          time.Duration
	CreatedAt         time.Time
}

// Store is a SQLite-backed archive of tuning runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive database and runs the
// schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun archives a completed run and its full trial history in one
// transaction, returning the run ID.
func (s *Store) SaveRun(res *tuning.Result, pipette, liquid string, budget int) (string, error) {
	runID := res.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	seedJSON, err := json.Marshal(res.Seed)
	if err != nil {
		return "", fmt.Errorf("marshal seed params: %w", err)
	}

	var bestParams any
	var bestTrial, bestScore any
	if res.BestFound {
		bp, err := json.Marshal(res.Best.Params)
		if err != nil {
			return "", fmt.Errorf("marshal best params: %w", err)
		}
		bestParams = string(bp)
		bestTrial = res.Best.Index
		bestScore = res.Best.Score
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	converged := 0
	if res.Converged {
		converged = 1
	}
	_, err = tx.Exec(`
		INSERT INTO runs
		(id, pipette, liquid, strategy, budget, trials, successes, failures,
		 best_trial, best_score, best_params, seed_params,
		 converged, convergence_reason, final_rate, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, pipette, liquid, res.Strategy, budget,
		res.Trials, res.Successes, res.Failures,
		bestTrial, bestScore, bestParams, string(seedJSON),
		converged, res.ConvergenceReason, res.FinalRate,
		res.Duration.Milliseconds(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", runID, err)
	}

	for _, r := range res.History.Records() {
		pj, err := json.Marshal(r.Params)
		if err != nil {
			return "", fmt.Errorf("marshal trial %d params: %w", r.Index, err)
		}
		failed := 0
		var score any
		if r.Failed {
			failed = 1
		} else {
			score = r.Score
		}
		_, err = tx.Exec(`
			INSERT INTO trials
			(run_id, idx, params, score, failed, fail_reason, phase, learning_rate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Index, string(pj), score, failed, r.FailReason, r.Phase, r.LearningRate,
		)
		if err != nil {
			return "", fmt.Errorf("insert trial %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit archive tx: %w", err)
	}
	return runID, nil
}

// ListRuns returns run summaries, newest first, up to limit (50 when
// limit is not positive).
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, pipette, liquid, strategy, budget, trials, successes, failures,
		       best_trial, best_score, best_params, seed_params,
		       converged, convergence_reason, final_rate, duration_ms, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		sum, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// LoadRun returns one archived run and its trial records in trial order.
func (s *Store) LoadRun(runID string) (RunSummary, []trial.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, pipette, liquid, strategy, budget, trials, successes, failures,
		       best_trial, best_score, best_params, seed_params,
		       converged, convergence_reason, final_rate, duration_ms, created_at
		FROM runs WHERE id = ?`, runID)

	sum, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunSummary{}, nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return RunSummary{}, nil, err
	}

	rows, err := s.db.Query(`
		SELECT idx, params, score, failed, fail_reason, phase, learning_rate
		FROM trials WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("query trials for %s: %w", runID, err)
	}
	defer rows.Close()

	var recs []trial.Record
	for rows.Next() {
		var (
			r          trial.Record
			paramsJSON string
			score      sql.NullFloat64
			failed     int
		)
		if err := rows.Scan(&r.Index, &paramsJSON, &score, &failed, &r.FailReason, &r.Phase, &r.LearningRate); err != nil {
			return RunSummary{}, nil, fmt.Errorf("scan trial row: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
			return RunSummary{}, nil, fmt.Errorf("decode trial %d params: %w", r.Index, err)
		}
		r.Failed = failed != 0
		if score.Valid {
			r.Score = score.Float64
		}
		recs = append(recs, r)
	}
	return sum, recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var (
		sum        RunSummary
		bestTrial  sql.NullInt64
		bestScore  sql.NullFloat64
		bestParams sql.NullString
		seedJSON   string
		converged  int
		durationMS int64
		createdAt  string
	)
	err := row.Scan(&sum.ID, &sum.Pipette, &sum.Liquid, &sum.Strategy, &sum.Budget,
		&sum.Trials, &sum.Successes, &sum.Failures,
		&bestTrial, &bestScore, &bestParams, &seedJSON,
		&converged, &sum.ConvergenceReason, &sum.FinalRate, &durationMS, &createdAt)
	if err != nil {
		return RunSummary{}, err
	}

	if err := json.Unmarshal([]byte(seedJSON), &sum.SeedParams); err != nil {
		return RunSummary{}, fmt.Errorf("decode seed params for %s: %w", sum.ID, err)
	}
	if bestParams.Valid {
		sum.BestFound = true
		sum.BestTrial = int(bestTrial.Int64)
		sum.BestScore = bestScore.Float64
		if err := json.Unmarshal([]byte(bestParams.String), &sum.BestParams); err != nil {
			return RunSummary{}, fmt.Errorf("decode best params for %s: %w", sum.ID, err)
		}
	}
	sum.Converged = converged != 0
	sum.Duration = time.Duration(durationMS) * time.Millisecond
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		sum.CreatedAt = t
	}
	return sum, nil
}

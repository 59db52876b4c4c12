// Package ledger persists run history in a SQLite database inside the
// output directory. Recording is advisory: ledger failures are logged and
// never fail a run.
package ledger

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/slideforge/slideforge/internal/observability"
	"github.com/slideforge/slideforge/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	document    TEXT NOT NULL,
	output_dir  TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS run_stages (
	run_id      TEXT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	artifact    TEXT NOT NULL DEFAULT '',
	elapsed_ms  INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, stage)
);
`

// Ledger records run history and answers status queries.
type Ledger struct {
	db     *sql.DB
	logger *observability.Logger
}

// Open opens (or creates) the ledger database at path.
func Open(path string, logger *observability.Logger) (*Ledger, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db, logger: logger.WithComponent("ledger")}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Begin records the start of a run.
func (l *Ledger) Begin(run *pipeline.Run) {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO runs (id, document, output_dir, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.DocumentPath, run.OutputDir, string(pipeline.StatusRunning), run.StartedAt)
	if err != nil {
		l.logger.Warn().Err(err).Msg("ledger begin failed")
	}
}

// StageResult records one stage's outcome.
func (l *Ledger) StageResult(run *pipeline.Run, stage pipeline.StageName, status pipeline.Status, artifact string, elapsed time.Duration, stageErr error) {
	errText := ""
	if stageErr != nil {
		errText = stageErr.Error()
	}
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO run_stages (run_id, stage, status, artifact, elapsed_ms, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), string(stage), string(status), artifact, elapsed.Milliseconds(), errText, time.Now())
	if err != nil {
		l.logger.Warn().Str("stage", string(stage)).Err(err).Msg("ledger stage record failed")
	}
}

// Finish records the run's terminal status.
func (l *Ledger) Finish(run *pipeline.Run, status pipeline.Status) {
	_, err := l.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), time.Now(), run.ID.String())
	if err != nil {
		l.logger.Warn().Err(err).Msg("ledger finish failed")
	}
}

// RunRecord is one persisted run.
type RunRecord struct {
	ID         string
	Document   string
	OutputDir  string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// StageRecord is one persisted stage outcome.
type StageRecord struct {
	Stage    string
	Status   string
	Artifact string
	Elapsed  time.Duration
	Error    string
}

// LatestRun returns the most recently started run and its stage records, or
// sql.ErrNoRows when the ledger is empty.
func (l *Ledger) LatestRun() (*RunRecord, []StageRecord, error) {
	var rec RunRecord
	var finished sql.NullTime
	err := l.db.QueryRow(
		`SELECT id, document, output_dir, status, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&rec.ID, &rec.Document, &rec.OutputDir, &rec.Status, &rec.StartedAt, &finished)
	if err != nil {
		return nil, nil, err
	}
	if finished.Valid {
		rec.FinishedAt = &finished.Time
	}

	rows, err := l.db.Query(
		`SELECT stage, status, artifact, elapsed_ms, error FROM run_stages WHERE run_id = ?`, rec.ID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	byStage := make(map[string]StageRecord)
	for rows.Next() {
		var s StageRecord
		var elapsedMS int64
		if err := rows.Scan(&s.Stage, &s.Status, &s.Artifact, &elapsedMS, &s.Error); err != nil {
			return nil, nil, err
		}
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		byStage[s.Stage] = s
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// Return stages in pipeline order, including ones never recorded.
	stages := make([]StageRecord, 0, len(pipeline.StageOrder))
	for _, name := range pipeline.StageOrder {
		if s, ok := byStage[string(name)]; ok {
			stages = append(stages, s)
		} else {
			stages = append(stages, StageRecord{Stage: string(name), Status: string(pipeline.StatusPending)})
		}
	}
	return &rec, stages, nil
}

package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/agent-eval/internal/model"
)

// SQLiteSink implements Sink using modernc.org/sqlite.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS execution_records (
	run_id           TEXT NOT NULL,
	test_case_id     TEXT NOT NULL,
	prompt           TEXT NOT NULL,
	response         TEXT NOT NULL,
	scoring          TEXT,
	status           TEXT NOT NULL,
	created_at       DATETIME NOT NULL,
	attempts         INTEGER NOT NULL,
	cost_usd         REAL NOT NULL DEFAULT 0,
	trajectory_steps INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_execution_records_run_id ON execution_records(run_id);
CREATE INDEX IF NOT EXISTS idx_execution_records_status ON execution_records(status);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) Append(ctx context.Context, rec model.ExecutionRecord) error {
	responseJSON, scoringJSON, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO execution_records
		 (run_id, test_case_id, prompt, response, scoring, status, created_at, attempts, cost_usd, trajectory_steps)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.TestCaseID, rec.Prompt, responseJSON, scoringJSON,
		string(rec.Status), rec.CreatedAt.UTC(), rec.Attempts, rec.CostUSD, rec.TrajectorySteps,
	)
	return eris.Wrapf(err, "sqlite: insert record %s/%s", rec.RunID, rec.TestCaseID)
}

func (s *SQLiteSink) Query(ctx context.Context, filter Filter) ([]model.ExecutionRecord, error) {
	query := `SELECT run_id, test_case_id, prompt, response, scoring, status, created_at, attempts, cost_usd, trajectory_steps
		FROM execution_records`
	var clauses []string
	var args []any
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.TestCaseID != "" {
		clauses = append(clauses, "test_case_id = ?")
		args = append(args, filter.TestCaseID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close()

	var out []model.ExecutionRecord
	for rows.Next() {
		var rec model.ExecutionRecord
		var responseJSON string
		var scoringJSON sql.NullString
		var status string
		var createdAt time.Time
		if err := rows.Scan(&rec.RunID, &rec.TestCaseID, &rec.Prompt, &responseJSON, &scoringJSON,
			&status, &createdAt, &rec.Attempts, &rec.CostUSD, &rec.TrajectorySteps); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if err := decodeRecord(&rec, responseJSON, scoringJSON.String, status, createdAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func encodeRecord(rec model.ExecutionRecord) (response string, scoring *string, err error) {
	respJSON, err := json.Marshal(rec.Response)
	if err != nil {
		return "", nil, err
	}
	if rec.Scoring != nil {
		scoreJSON, err := json.Marshal(rec.Scoring)
		if err != nil {
			return "", nil, err
		}
		s := string(scoreJSON)
		scoring = &s
	}
	return string(respJSON), scoring, nil
}

func decodeRecord(rec *model.ExecutionRecord, responseJSON, scoringJSON, status string, createdAt time.Time) error {
	if err := json.Unmarshal([]byte(responseJSON), &rec.Response); err != nil {
		return eris.Wrap(err, "sink: decode response")
	}
	if scoringJSON != "" {
		rec.Scoring = &model.ScoreResult{}
		if err := json.Unmarshal([]byte(scoringJSON), rec.Scoring); err != nil {
			return eris.Wrap(err, "sink: decode scoring")
		}
	}
	rec.Status = model.RecordStatus(status)
	rec.CreatedAt = createdAt.UTC()
	return nil
}

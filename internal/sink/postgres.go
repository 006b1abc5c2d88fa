package sink

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/model"
)

// Pool is the pgxpool surface the sink needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresSink implements Sink using pgxpool.
type PostgresSink struct {
	pool Pool
}

// NewPostgres creates a PostgresSink with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS execution_records (
	run_id           TEXT NOT NULL,
	test_case_id     TEXT NOT NULL,
	prompt           TEXT NOT NULL,
	response         JSONB NOT NULL,
	scoring          JSONB,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	attempts         INTEGER NOT NULL,
	cost_usd         DOUBLE PRECISION NOT NULL DEFAULT 0,
	trajectory_steps INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_execution_records_run_id ON execution_records(run_id);
CREATE INDEX IF NOT EXISTS idx_execution_records_status ON execution_records(status);
`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, rec model.ExecutionRecord) error {
	responseJSON, scoringJSON, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: encode record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO execution_records
		 (run_id, test_case_id, prompt, response, scoring, status, created_at, attempts, cost_usd, trajectory_steps)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.RunID, rec.TestCaseID, rec.Prompt, responseJSON, scoringJSON,
		string(rec.Status), rec.CreatedAt.UTC(), rec.Attempts, rec.CostUSD, rec.TrajectorySteps,
	)
	return eris.Wrapf(err, "postgres: insert record %s/%s", rec.RunID, rec.TestCaseID)
}

func (s *PostgresSink) Query(ctx context.Context, filter Filter) ([]model.ExecutionRecord, error) {
	query := `SELECT run_id, test_case_id, prompt, response, scoring, status, created_at, attempts, cost_usd, trajectory_steps
		FROM execution_records`
	var clauses []string
	var args []any
	if filter.RunID != "" {
		args = append(args, filter.RunID)
		clauses = append(clauses, "run_id = $"+strconv.Itoa(len(args)))
	}
	if filter.TestCaseID != "" {
		args = append(args, filter.TestCaseID)
		clauses = append(clauses, "test_case_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query records")
	}
	defer rows.Close()

	var out []model.ExecutionRecord
	for rows.Next() {
		var rec model.ExecutionRecord
		var responseJSON []byte
		var scoringJSON []byte
		var status string
		var createdAt time.Time
		if err := rows.Scan(&rec.RunID, &rec.TestCaseID, &rec.Prompt, &responseJSON, &scoringJSON,
			&status, &createdAt, &rec.Attempts, &rec.CostUSD, &rec.TrajectorySteps); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		if err := json.Unmarshal(responseJSON, &rec.Response); err != nil {
			return nil, eris.Wrap(err, "postgres: decode response")
		}
		if len(scoringJSON) > 0 {
			rec.Scoring = &model.ScoreResult{}
			if err := json.Unmarshal(scoringJSON, rec.Scoring); err != nil {
				return nil, eris.Wrap(err, "postgres: decode scoring")
			}
		}
		rec.Status = model.RecordStatus(status)
		rec.CreatedAt = createdAt.UTC()
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

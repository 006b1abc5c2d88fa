package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/agent-eval/internal/model"
)

// newMockPostgresSink creates a PostgresSink backed by pgxmock for unit testing.
func newMockPostgresSink(t *testing.T) (*PostgresSink, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresSink{pool: mock}, mock
}

func TestPostgres_Append(t *testing.T) {
	s, mock := newMockPostgresSink(t)

	mock.ExpectExec(`INSERT INTO execution_records`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Append(context.Background(), testRecord("run-1", "case-1", model.RecordSuccess))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Append_Error(t *testing.T) {
	s, mock := newMockPostgresSink(t)

	mock.ExpectExec(`INSERT INTO execution_records`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	err := s.Append(context.Background(), testRecord("run-1", "case-1", model.RecordSuccess))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Query(t *testing.T) {
	s, mock := newMockPostgresSink(t)
	now := time.Now().UTC().Truncate(time.Second)

	rows := pgxmock.NewRows([]string{
		"run_id", "test_case_id", "prompt", "response", "scoring",
		"status", "created_at", "attempts", "cost_usd", "trajectory_steps",
	}).AddRow(
		"run-1", "case-1", "What is 2+2?",
		[]byte(`{"text":"4","prompt_tokens":12,"completion_tokens":3,"latency_ms":48.5}`),
		[]byte(`{"score":1,"matched":true,"method":"exact"}`),
		"success", now, 1, 0.00012, 0,
	)

	mock.ExpectQuery(`SELECT .+ FROM execution_records WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	got, err := s.Query(context.Background(), Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "case-1", got[0].TestCaseID)
	assert.Equal(t, "4", got[0].Response.Text)
	require.NotNil(t, got[0].Scoring)
	assert.True(t, got[0].Scoring.Matched)
	assert.Equal(t, model.RecordSuccess, got[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Query_NilScoring(t *testing.T) {
	s, mock := newMockPostgresSink(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"run_id", "test_case_id", "prompt", "response", "scoring",
		"status", "created_at", "attempts", "cost_usd", "trajectory_steps",
	}).AddRow(
		"run-1", "case-1", "p",
		[]byte(`{"text":"","error":"upstream down"}`),
		[]byte(nil),
		"error", now, 3, 0.0, 0,
	)

	mock.ExpectQuery(`SELECT .+ FROM execution_records`).
		WillReturnRows(rows)

	got, err := s.Query(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Scoring)
	assert.Equal(t, model.RecordError, got[0].Status)
	assert.Equal(t, 3, got[0].Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "cassandra", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

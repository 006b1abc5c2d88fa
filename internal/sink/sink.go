// Package sink persists execution records. A record handed to Append
// is durable once Append returns; a crashed batch loses at most the
// in-flight cases.
package sink

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/model"
)

// Drivers accepted by Open.
const (
	DriverJSONL    = "jsonl"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	RunID      string
	TestCaseID string
	Status     model.RecordStatus
	Limit      int
}

// Sink is the persistence interface for execution records.
// Implementations must be safe for concurrent Append calls.
type Sink interface {
	Append(ctx context.Context, rec model.ExecutionRecord) error
	Query(ctx context.Context, filter Filter) ([]model.ExecutionRecord, error)
	Close() error
}

// Open constructs and migrates the sink for a driver/DSN pair.
func Open(ctx context.Context, driver, dsn string) (Sink, error) {
	switch driver {
	case DriverJSONL:
		return NewJSONL(dsn)
	case DriverSQLite:
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("sink: unknown driver %q", driver)
	}
}

// matches reports whether a record passes the filter, for backends
// that filter in memory.
func (f Filter) matches(rec model.ExecutionRecord) bool {
	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	if f.TestCaseID != "" && rec.TestCaseID != f.TestCaseID {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

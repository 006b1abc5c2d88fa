package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/model"
)

// JSONLSink appends records as one JSON object per line. Appends are
// serialized by a mutex and fsynced before returning, so a line is
// either fully present or absent.
type JSONLSink struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewJSONL opens (creating if needed) a JSONL file for appending.
func NewJSONL(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "jsonl: open %s", path)
	}
	return &JSONLSink{f: f, path: path}, nil
}

func (s *JSONLSink) Append(_ context.Context, rec model.ExecutionRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "jsonl: marshal record")
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(line); err != nil {
		return eris.Wrapf(err, "jsonl: append to %s", s.path)
	}
	if err := s.f.Sync(); err != nil {
		return eris.Wrapf(err, "jsonl: sync %s", s.path)
	}
	return nil
}

// Query re-reads the file. Lines that fail to decode are skipped; a
// torn final line from a crashed writer must not poison the history.
func (s *JSONLSink) Query(_ context.Context, filter Filter) ([]model.ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "jsonl: open %s", s.path)
	}
	defer f.Close()

	var out []model.ExecutionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec model.ExecutionRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if !filter.matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "jsonl: scan %s", s.path)
	}
	return out, nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

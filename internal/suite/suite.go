// Package suite loads evaluation suites from disk.
package suite

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/agent-eval/internal/model"
)

// Suite is a named set of test cases.
type Suite struct {
	ID    string           `json:"id" yaml:"id"`
	Cases []model.TestCase `json:"cases" yaml:"cases"`
}

// Load reads a suite from a YAML, JSON, or JSONL file, picked by
// extension. JSONL files hold one bare TestCase per line and take the
// file name as the suite ID.
func Load(path string) (*Suite, error) {
	var (
		s   *Suite
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err = loadYAML(path)
	case ".json":
		s, err = loadJSON(path)
	case ".jsonl":
		s, err = loadJSONL(path)
	default:
		return nil, eris.Errorf("suite: unsupported file type %s", path)
	}
	if err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadYAML(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "suite: read %s", path)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "suite: parse %s", path)
	}
	return &s, nil
}

func loadJSON(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "suite: read %s", path)
	}
	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "suite: parse %s", path)
	}
	return &s, nil
}

func loadJSONL(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "suite: open %s", path)
	}
	defer f.Close()

	var s Suite
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var tc model.TestCase
		if err := json.Unmarshal([]byte(text), &tc); err != nil {
			return nil, eris.Wrapf(err, "suite: %s line %d", path, line)
		}
		s.Cases = append(s.Cases, tc)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "suite: scan %s", path)
	}
	return &s, nil
}

// validate enforces the batch input contract: non-empty, every case
// has an ID and a prompt, and IDs are unique within the suite.
func (s *Suite) validate() error {
	if len(s.Cases) == 0 {
		return eris.Errorf("suite %s: no test cases", s.ID)
	}
	seen := make(map[string]struct{}, len(s.Cases))
	for i, tc := range s.Cases {
		if tc.ID == "" {
			return eris.Errorf("suite %s: case %d has no id", s.ID, i)
		}
		if tc.Prompt == "" {
			return eris.Errorf("suite %s: case %s has no prompt", s.ID, tc.ID)
		}
		if _, dup := seen[tc.ID]; dup {
			return eris.Errorf("suite %s: duplicate case id %s", s.ID, tc.ID)
		}
		seen[tc.ID] = struct{}{}
	}
	return nil
}

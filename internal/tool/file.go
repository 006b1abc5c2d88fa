package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// FileOps reads and writes files under a root directory. Paths that
// escape the root are rejected.
type FileOps struct {
	Root string
}

// NewFileOps creates a FileOps rooted at dir ("." if empty).
func NewFileOps(dir string) *FileOps {
	if dir == "" {
		dir = "."
	}
	return &FileOps{Root: dir}
}

func (f *FileOps) Description() string {
	return `file: file operations - {"operation":"read|write|list|exists","path":"...","content":"..."}`
}

func (f *FileOps) Execute(_ context.Context, input map[string]any) (string, error) {
	op, err := stringArg(input, "operation")
	if err != nil {
		return "", err
	}

	path := "."
	if _, ok := input["path"]; ok {
		if path, err = stringArg(input, "path"); err != nil {
			return "", err
		}
	}
	abs, err := f.resolve(path)
	if err != nil {
		return "", err
	}

	switch op {
	case "read":
		data, err := os.ReadFile(abs)
		if err != nil {
			return "", eris.Wrapf(err, "read %s", path)
		}
		return string(data), nil
	case "write":
		content, err := stringArg(input, "content")
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return "", eris.Wrapf(err, "create parent of %s", path)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			return "", eris.Wrapf(err, "write %s", path)
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
	case "list":
		entries, err := os.ReadDir(abs)
		if err != nil {
			return "", eris.Wrapf(err, "list %s", path)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return strings.Join(names, "\n"), nil
	case "exists":
		if _, err := os.Stat(abs); err != nil {
			if os.IsNotExist(err) {
				return "false", nil
			}
			return "", eris.Wrapf(err, "stat %s", path)
		}
		return "true", nil
	default:
		return "", eris.Errorf("unknown file operation %q", op)
	}
}

func (f *FileOps) resolve(path string) (string, error) {
	abs := filepath.Join(f.Root, path)
	rootAbs, err := filepath.Abs(f.Root)
	if err != nil {
		return "", eris.Wrap(err, "resolve root")
	}
	pathAbs, err := filepath.Abs(abs)
	if err != nil {
		return "", eris.Wrapf(err, "resolve %s", path)
	}
	if pathAbs != rootAbs && !strings.HasPrefix(pathAbs, rootAbs+string(os.PathSeparator)) {
		return "", eris.Errorf("path %s escapes workspace", path)
	}
	return pathAbs, nil
}

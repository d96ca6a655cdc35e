// Package file provides the pseudo-source backed by declarative SQL files, so
// a plan can compare a file tree against a database or against another tree.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pgplan/pgplan/database"
	"github.com/pgplan/pgplan/parser"
	"github.com/pgplan/pgplan/schema"
)

type FileSource struct {
	path        string
	concurrency int
}

func NewSource(path string, concurrency int) *FileSource {
	return &FileSource{
		path:        path,
		concurrency: concurrency,
	}
}

// ExportSchema parses the file, or every .sql file under the directory in
// filename order, into one snapshot. Reads run concurrently; folding is
// sequential so later files can reference objects from earlier ones.
func (f *FileSource) ExportSchema() (*schema.Schema, error) {
	paths, err := f.sqlFiles()
	if err != nil {
		return nil, err
	}

	contents, err := database.ConcurrentMapFuncWithError(paths, f.concurrency, func(path string) (string, error) {
		buf, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	})
	if err != nil {
		return nil, err
	}

	s := schema.NewSchema()
	for i, sql := range contents {
		if err := parser.ParseInto(s, sql); err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
	}
	return s, nil
}

func (f *FileSource) Close() error {
	return nil
}

func (f *FileSource) sqlFiles() ([]string, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{f.path}, nil
	}

	entries, err := os.ReadDir(f.path)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		paths = append(paths, filepath.Join(f.path, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Output formats.
const (
	FormatXLSX    = "xlsx"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
)

// Writer persists one report into dir and returns the files it created.
// Nothing is visible under the final names unless the whole report was
// written.
type Writer interface {
	Format() string
	Write(dir string, rep *Report) ([]string, error)
}

var writers = map[string]Writer{
	FormatXLSX:    xlsxWriter{},
	FormatCSV:     csvWriter{},
	FormatParquet: parquetWriter{},
	FormatSQLite:  sqliteWriter{},
}

// NewWriter returns the writer for format.
func NewWriter(format string) (Writer, error) {
	w, ok := writers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		known := make([]string, 0, len(writers))
		for k := range writers {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unsupported format %q (expected %s)", format, strings.Join(known, "|"))
	}
	return w, nil
}

// staging collects temp files created next to their final paths. commit
// renames all of them; abort removes them.
type staging struct {
	pending [][2]string
}

func (s *staging) create(final string) (*os.File, error) {
	f, err := os.CreateTemp(filepath.Dir(final), "."+filepath.Base(final)+".tmp-*")
	if err != nil {
		return nil, err
	}
	s.pending = append(s.pending, [2]string{f.Name(), final})
	return f, nil
}

// reserve returns a temp path for libraries that open the file themselves.
func (s *staging) reserve(final string) (string, error) {
	f, err := s.create(final)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *staging) commit() ([]string, error) {
	out := make([]string, 0, len(s.pending))
	for _, p := range s.pending {
		if err := os.Rename(p[0], p[1]); err != nil {
			s.abort()
			return out, fmt.Errorf("commit %s: %w", filepath.Base(p[1]), err)
		}
		out = append(out, p[1])
	}
	s.pending = nil
	return out, nil
}

func (s *staging) abort() {
	for _, p := range s.pending {
		_ = os.Remove(p[0])
	}
	s.pending = nil
}

// writeStaged creates one staged file, runs write on it and closes it. On
// error the whole staging area is aborted.
func writeStaged(s *staging, final string, write func(f *os.File) error) error {
	f, err := s.create(final)
	if err != nil {
		s.abort()
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		s.abort()
		return err
	}
	if err := f.Close(); err != nil {
		s.abort()
		return err
	}
	return nil
}

var errRaggedRow = errors.New("row width does not match columns")

func checkTable(t Table) error {
	if t.Name == "" {
		return fmt.Errorf("table without name")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s row %d: %w (%d != %d)", t.Name, i, errRaggedRow, len(row), len(t.Columns))
		}
	}
	return nil
}

// formatCell renders a cell for text outputs.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

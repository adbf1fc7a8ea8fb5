package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
)

// csvWriter writes one <table>.csv per table.
type csvWriter struct{}

func (csvWriter) Format() string { return FormatCSV }

func (csvWriter) Write(dir string, rep *Report) ([]string, error) {
	var s staging
	for _, t := range rep.Tables {
		if err := checkTable(t); err != nil {
			s.abort()
			return nil, err
		}
		t := t
		err := writeStaged(&s, filepath.Join(dir, t.Name+".csv"), func(f *os.File) error {
			return writeTableCSV(f, t)
		})
		if err != nil {
			return nil, err
		}
	}
	return s.commit()
}

func writeTableCSV(f *os.File, t Table) error {
	w := csv.NewWriter(f)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

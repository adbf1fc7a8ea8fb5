package pipeline

import (
	"log/slog"
	"time"

	healthxl "github.com/GRIGOR2T/apple-health-to-excel"
)

// Options configures one report run.
type Options struct {
	ExportPath    string
	OutDir        string
	Formats       []string // xlsx|csv|parquet|sqlite, defaults to xlsx
	Jobs          []string // defaults to DefaultJobs
	Cutoffs       Cutoffs
	SourceMarker  string
	ZoneBounds    []float64
	ProgressEvery int
	Logger        *slog.Logger
}

// Cutoffs are the first dates each job considers. A zero date disables the
// cutoff.
type Cutoffs struct {
	VO2Max          time.Time
	Weight          time.Time
	Walks           time.Time
	WeeklyFromDaily time.Time
}

// DefaultCutoffs returns the cutoffs the reports were first built with.
func DefaultCutoffs() Cutoffs {
	return Cutoffs{
		VO2Max:          time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		Weight:          time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		Walks:           time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		WeeklyFromDaily: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Result returns generated output paths and the per-report outcome.
type Result struct {
	RunID        string         `json:"run_id"`
	OutputDir    string         `json:"output_dir"`
	ManifestPath string         `json:"manifest_path"`
	Reports      []ReportResult `json:"reports"`
}

// Report statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ReportResult is one job's outcome.
type ReportResult struct {
	Job      string             `json:"job"`
	Status   string             `json:"status"`
	Error    string             `json:"error,omitempty"`
	Rows     int                `json:"rows"`
	Files    []string           `json:"files,omitempty"`
	Scan     healthxl.ScanStats `json:"scan"`
	Duration float64            `json:"duration_s"`
}

// Manifest is written as manifest.json next to the reports.
type Manifest struct {
	RunID           string         `json:"run_id"`
	Source          string         `json:"source"`
	SourceSizeBytes int64          `json:"source_size_bytes"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Formats         []string       `json:"formats"`
	Reports         []ReportResult `json:"reports"`
}

// ColumnKind is the cell type of a column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindFloat
	KindInt
	KindDate
	KindTime
)

// Column describes one table column. Title is the spreadsheet header and
// defaults to Name.
type Column struct {
	Name  string
	Title string
	Kind  ColumnKind
}

// Header returns the spreadsheet header.
func (c Column) Header() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Table is the in-memory result handed to a writer. Cells are nil, string,
// float64, int or time.Time, matching the column kind.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Report is everything one job produced.
type Report struct {
	Job    string
	Tables []Table
	Scan   healthxl.ScanStats
}

// RowCount sums the rows of every table.
func (r *Report) RowCount() int {
	n := 0
	for _, t := range r.Tables {
		n += len(t.Rows)
	}
	return n
}

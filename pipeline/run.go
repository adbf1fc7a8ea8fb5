package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	healthxl "github.com/GRIGOR2T/apple-health-to-excel"
	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

// ManifestName is the run manifest written into the output directory.
const ManifestName = "manifest.json"

// Run executes the selected report jobs against one export and writes every
// report in every requested format. A missing source aborts the run before
// any job starts. A failing job is recorded in the manifest and the
// remaining jobs still run; the returned error joins every job failure.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.ExportPath) == "" {
		return nil, fmt.Errorf("export path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SourceMarker == "" {
		opts.SourceMarker = healthxl.DefaultSourceMarker
	}

	formats, sinks, err := resolveWriters(opts.Formats)
	if err != nil {
		return nil, err
	}
	jobNames, err := resolveJobs(opts.Jobs)
	if err != nil {
		return nil, err
	}
	zones := healthxl.DefaultZoneTable()
	if len(opts.ZoneBounds) > 0 {
		if zones, err = healthxl.NewZoneTable(opts.ZoneBounds); err != nil {
			return nil, fmt.Errorf("heart-rate zones: %w", err)
		}
	}

	size, err := sourceSize(opts.ExportPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	manifest := Manifest{
		RunID:           uuid.NewString(),
		Source:          opts.ExportPath,
		SourceSizeBytes: size,
		StartedAt:       time.Now().UTC(),
		Formats:         formats,
	}
	logger = logger.With("run_id", manifest.RunID)
	logger.Info("report run started", "source", opts.ExportPath, "size_bytes", size, "jobs", jobNames, "formats", formats)

	var errs []error
	for _, name := range jobNames {
		rr, err := runJob(name, opts, zones, sinks, logger.With("job", name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		manifest.Reports = append(manifest.Reports, rr)
	}
	manifest.FinishedAt = time.Now().UTC()

	res := &Result{
		RunID:        manifest.RunID,
		OutputDir:    opts.OutDir,
		ManifestPath: filepath.Join(opts.OutDir, ManifestName),
		Reports:      manifest.Reports,
	}
	if err := writeManifest(res.ManifestPath, manifest); err != nil {
		errs = append(errs, fmt.Errorf("write %s: %w", ManifestName, err))
	}
	logger.Info("report run finished", "failed", len(errs), "elapsed_s", manifest.FinishedAt.Sub(manifest.StartedAt).Seconds())
	return res, errors.Join(errs...)
}

func runJob(name string, opts Options, zones healthxl.ZoneTable, sinks []Writer, logger *slog.Logger) (ReportResult, error) {
	started := time.Now()
	env := &jobEnv{path: opts.ExportPath, opts: opts, zones: zones, logger: logger}
	rr := ReportResult{Job: name, Status: StatusOK}

	rep, err := jobs[name](env)
	if err == nil {
		rr.Rows = rep.RowCount()
		rr.Files, err = writeReport(opts.OutDir, rep, sinks)
	}
	rr.Scan = env.stats
	rr.Duration = time.Since(started).Seconds()
	if err != nil {
		rr.Status = StatusFailed
		rr.Error = err.Error()
		logger.Error("report failed", "error", err)
		return rr, err
	}
	logger.Info("report written", "rows", rr.Rows, "files", rr.Files, "elapsed_s", rr.Duration)
	return rr, nil
}

// writeReport runs every sink. When one fails, files already committed for
// this report are removed again.
func writeReport(dir string, rep *Report, sinks []Writer) ([]string, error) {
	var files []string
	for _, w := range sinks {
		out, err := w.Write(dir, rep)
		if err != nil {
			for _, f := range files {
				_ = os.Remove(f)
			}
			return nil, fmt.Errorf("write %s: %w", w.Format(), err)
		}
		files = append(files, out...)
	}
	return files, nil
}

func resolveWriters(formats []string) ([]string, []Writer, error) {
	if len(formats) == 0 {
		formats = []string{FormatXLSX}
	}
	seen := map[string]bool{}
	var names []string
	var sinks []Writer
	for _, f := range formats {
		w, err := NewWriter(f)
		if err != nil {
			return nil, nil, err
		}
		if seen[w.Format()] {
			continue
		}
		seen[w.Format()] = true
		names = append(names, w.Format())
		sinks = append(sinks, w)
	}
	return names, sinks, nil
}

func sourceSize(path string) (int64, error) {
	r, err := healthexport.Open(path)
	if err != nil {
		return 0, err
	}
	size := r.Size()
	return size, r.Close()
}

func writeManifest(path string, m Manifest) error {
	var s staging
	err := writeStaged(&s, path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
	if err != nil {
		return err
	}
	_, err = s.commit()
	return err
}

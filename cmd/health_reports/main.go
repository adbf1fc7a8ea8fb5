package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GRIGOR2T/apple-health-to-excel/internal/config"
	"github.com/GRIGOR2T/apple-health-to-excel/internal/logging"
	"github.com/GRIGOR2T/apple-health-to-excel/pipeline"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional; HEALTH_CONFIG also works)")
		exportPath = flag.String("export", "", "Path to Apple Health export.xml")
		outDir     = flag.String("out", "", "Output directory")
		formats    = flag.String("formats", "", "Comma-separated output formats: xlsx,csv,parquet,sqlite")
		jobs       = flag.String("jobs", "", "Comma-separated reports to run (default: all)")
		source     = flag.String("source", "", "Source marker for watch-only reports")
		logLevel   = flag.String("log-level", "", "Log level: debug|info|warn|error")
		logFormat  = flag.String("log-format", "", "Log format: text|json")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--config health.yaml] [--export export.xml] [--out reports] [--formats xlsx,csv]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "Reports: %s\n", strings.Join(pipeline.DefaultJobs, ", "))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health_reports failed: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "export":
			cfg.ExportPath = *exportPath
		case "out":
			cfg.OutDir = *outDir
		case "formats":
			cfg.Formats = splitList(*formats)
		case "jobs":
			cfg.Jobs = splitList(*jobs)
		case "source":
			cfg.SourceMarker = *source
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "health_reports failed: %v\n", err)
		os.Exit(2)
	}

	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health_reports failed: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	opts := cfg.Options()
	opts.Logger = logger
	result, err := pipeline.Run(opts)
	if result == nil {
		closer.Close()
		fmt.Fprintf(os.Stderr, "health_reports failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("health_reports complete\n")
	fmt.Printf("Run id:          %s\n", result.RunID)
	fmt.Printf("Output dir:      %s\n", result.OutputDir)
	fmt.Printf("manifest.json:   %s\n", result.ManifestPath)
	for _, r := range result.Reports {
		if r.Status != pipeline.StatusOK {
			fmt.Printf("%-16s %s: %s\n", r.Job+":", r.Status, r.Error)
			continue
		}
		fmt.Printf("%-16s %d rows\n", r.Job+":", r.Rows)
		for _, f := range r.Files {
			fmt.Printf("                 %s\n", f)
		}
	}
	if err != nil {
		closer.Close()
		fmt.Fprintf(os.Stderr, "health_reports failed: %v\n", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

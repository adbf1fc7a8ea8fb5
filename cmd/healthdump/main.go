package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	healthxl "github.com/GRIGOR2T/apple-health-to-excel"
	"github.com/GRIGOR2T/apple-health-to-excel/internal/config"
	"github.com/GRIGOR2T/apple-health-to-excel/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		types      = flag.String("types", "", "Comma-separated record types (default: all)")
		workouts   = flag.String("workouts", "", "Comma-separated workout activity types; \"all\" dumps every workout")
		since      = flag.String("since", "", "Drop anything dated before YYYY-MM-DD")
		source     = flag.String("source", "", "Only keep sources containing this marker")
		noRecords  = flag.Bool("no-records", false, "Skip records, dump workouts only")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-export.xml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cutoff, err := config.ParseDate(*since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "since: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config failed: %v\n", err)
		os.Exit(1)
	}
	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging failed: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	out := bufio.NewWriterSize(os.Stdout, 1<<20)
	enc := json.NewEncoder(out)
	var encErr error
	emit := func(v any) {
		if encErr == nil {
			encErr = enc.Encode(v)
		}
	}

	scanner := healthxl.Scanner{Logger: logger, ProgressEvery: cfg.ProgressEvery}
	if !*noRecords {
		f := newFilter(*types, cutoff.Time, *source)
		scanner.Records = &f
		scanner.OnRecord = func(o healthxl.Observation) { emit(dumpLine{Kind: "record", Record: &o}) }
	}
	if *workouts != "" {
		list := *workouts
		if strings.EqualFold(list, "all") {
			list = ""
		}
		f := newFilter(list, cutoff.Time, *source)
		scanner.Workouts = &f
		scanner.OnWorkout = func(w healthxl.Workout) { emit(dumpLine{Kind: "workout", Workout: &w}) }
	}

	stats, err := scanner.Scan(flag.Arg(0))
	if err == nil {
		err = encErr
	}
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		closer.Close()
		fmt.Fprintf(os.Stderr, "dump failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("dump complete",
		"events", stats.Events,
		"records", stats.RecordsAccepted,
		"workouts", stats.WorkoutsAccepted,
		"malformed", stats.Malformed)
}

type dumpLine struct {
	Kind    string                `json:"kind"`
	Record  *healthxl.Observation `json:"record,omitempty"`
	Workout *healthxl.Workout     `json:"workout,omitempty"`
}

func newFilter(types string, cutoff time.Time, source string) healthxl.Filter {
	var list []string
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			list = append(list, t)
		}
	}
	return healthxl.NewFilter(list...).Since(cutoff).From(source)
}

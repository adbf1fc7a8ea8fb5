package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	healthxl "github.com/GRIGOR2T/apple-health-to-excel"
	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
	"github.com/GRIGOR2T/apple-health-to-excel/internal/config"
	"github.com/GRIGOR2T/apple-health-to-excel/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		fitPath    = flag.String("fit", "", "Analyze a .fit file instead of the export")
		activity   = flag.String("activity", healthexport.ActivityWalking, "Workout activity type to look for")
		jsonOut    = flag.Bool("json", false, "Emit full analysis as JSON")
		showSplits = flag.Bool("splits", false, "Include per-kilometre splits in text output")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [path-to-export.xml]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config failed: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() == 1 {
		cfg.ExportPath = flag.Arg(0)
	}
	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging failed: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	zones, err := healthxl.NewZoneTable(cfg.ZoneBounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zones: %v\n", err)
		os.Exit(2)
	}

	var report *healthxl.WorkoutReport
	if strings.TrimSpace(*fitPath) != "" {
		var act *healthexport.FITActivity
		act, err = healthexport.ReadFIT(*fitPath)
		if err == nil {
			report, err = healthxl.AnalyzeFIT(act, zones)
		}
	} else {
		report, err = healthxl.AnalyzeLatestWorkout(cfg.ExportPath, healthxl.Config{
			ActivityType: *activity,
			SourceMarker: cfg.SourceMarker,
			Zones:        zones,
			Logger:       logger,
		})
	}
	if err != nil {
		closer.Close()
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			closer.Close()
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(report.Notes)
	if *showSplits && len(report.Splits) > 0 {
		fmt.Println()
		fmt.Println("Splits")
		for _, s := range report.Splits {
			fmt.Printf(
				"- Km %5.2f | %s | %s | %s/km | %3d bpm\n",
				s.TargetKm,
				s.Arrival.Format("15:04:05"),
				healthxl.FormatMinSec(s.Duration.Seconds()),
				healthxl.FormatPace(s.PaceSecPerKm),
				s.AvgHeartRate,
			)
		}
	}
}

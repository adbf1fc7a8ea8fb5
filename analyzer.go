package healthxl

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

// Config controls the last-workout analysis.
type Config struct {
	ActivityType string
	SourceMarker string
	Zones        ZoneTable
	Logger       *slog.Logger
}

// WorkoutReport contains the extracted metrics, zones, splits and notes for
// one workout.
type WorkoutReport struct {
	ActivityType     string           `json:"activity_type"`
	Source           string           `json:"source,omitempty"`
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time"`
	DurationMinutes  float64          `json:"duration_min"`
	ElapsedMinutes   float64          `json:"elapsed_min"`
	ActiveKcal       float64          `json:"active_kcal"`
	BasalKcal        float64          `json:"basal_kcal"`
	TotalKcal        float64          `json:"total_kcal"`
	DistanceKm       float64          `json:"distance_km"`
	ElevationGainM   *float64         `json:"elevation_gain_m,omitempty"`
	AvgHeartRate     float64          `json:"avg_heart_rate_bpm"`
	MaxHeartRate     float64          `json:"max_heart_rate_bpm"`
	AvgPaceSecPerKm  float64          `json:"avg_pace_sec_per_km"`
	HeartRateSamples int              `json:"heart_rate_samples"`
	DistanceSamples  int              `json:"distance_samples"`
	DistanceEncoding DistanceEncoding `json:"distance_encoding,omitempty"`
	Zones            []ZoneDuration   `json:"zones"`
	Splits           []Split          `json:"splits,omitempty"`
	Notes            string           `json:"notes"`
}

// AnalyzeLatestWorkout finds the most recent workout of cfg.ActivityType in
// the export and analyzes it. It needs two passes over the document: the
// first locates the workout, the second collects its samples.
func AnalyzeLatestWorkout(path string, cfg Config) (*WorkoutReport, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	activity := cfg.ActivityType
	if activity == "" {
		activity = healthexport.ActivityWalking
	}

	w, err := FindLatestWorkout(path, NewFilter(activity), logger)
	if err != nil {
		return nil, fmt.Errorf("find latest %s: %w", activity, err)
	}
	logger.Info("latest workout", "type", w.ActivityType, "start", w.Start, "end", w.End, "distance_km", w.DistanceKm())

	hr, dist, err := CollectWorkoutSamples(path, w, cfg.SourceMarker, logger)
	if err != nil {
		return nil, fmt.Errorf("collect workout samples: %w", err)
	}

	report, err := AnalyzeWorkout(w, hr, dist, cfg.Zones)
	if err != nil {
		return nil, err
	}
	logger.Info("distance samples reconciled",
		"encoding", string(report.DistanceEncoding),
		"samples", report.DistanceSamples,
		"splits", len(report.Splits))
	return report, nil
}

// AnalyzeWorkout reconciles the workout's samples and computes the report.
// A zero ZoneTable falls back to DefaultZoneTable.
func AnalyzeWorkout(w Workout, hr, dist []Observation, zones ZoneTable) (*WorkoutReport, error) {
	if len(zones.zones) == 0 {
		zones = DefaultZoneTable()
	}

	totalKm := w.DistanceKm()
	rec, err := Reconcile(Window{Start: w.Start, End: w.End}, totalKm, hr, dist)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s at %s: %w", w.ActivityType, w.Start.Format(TimestampLayout), err)
	}

	report := &WorkoutReport{
		ActivityType:     w.ActivityType,
		Source:           w.Source,
		StartTime:        w.Start,
		EndTime:          w.End,
		DurationMinutes:  safePositive(w.DurationMinutes),
		ElapsedMinutes:   safePositive(w.ElapsedMinutes()),
		ActiveKcal:       w.ActiveKcal(),
		BasalKcal:        w.BasalKcal(),
		DistanceKm:       totalKm,
		HeartRateSamples: len(rec.HeartRate),
		DistanceSamples:  len(rec.Distance),
		DistanceEncoding: rec.Encoding,
	}
	report.TotalKcal = report.ActiveKcal + report.BasalKcal
	if elev, ok := w.ElevationGainM(); ok {
		report.ElevationGainM = &elev
	}

	values := sampleValues(rec.HeartRate)
	report.AvgHeartRate = average(values)
	report.MaxHeartRate = maxValue(values)
	if report.DistanceKm > 0 && report.DurationMinutes > 0 {
		report.AvgPaceSecPerKm = report.DurationMinutes * 60.0 / report.DistanceKm
	}

	report.Zones = zones.Dwell(rec.HeartRate)
	report.Splits = ComputeSplits(rec.HeartRate, rec.Distance, w.Start, totalKm)
	report.Notes = BuildWorkoutNotes(report)
	return report, nil
}

// AnalyzeFIT runs the same analysis on a decoded FIT activity. Each FIT
// sample is treated as covering the second around its timestamp so samples
// on the window edges are kept.
func AnalyzeFIT(act *healthexport.FITActivity, zones ZoneTable) (*WorkoutReport, error) {
	totalKm := act.DistanceMeters / 1000.0
	w := Workout{
		ActivityType:    act.Sport,
		Start:           act.Start,
		End:             act.End,
		DurationMinutes: act.TimerSeconds / 60.0,
		TotalDistance:   &totalKm,
		Statistics:      map[string]Statistic{},
		Metadata:        map[string]string{},
		Source:          "FIT",
	}
	if act.Calories > 0 {
		kcal := act.Calories
		w.Statistics[healthexport.TypeActiveEnergyBurned] = Statistic{Sum: &kcal, Unit: "kcal"}
	}
	if act.AscentMeters > 0 {
		w.Metadata[healthexport.MetadataElevationAscended] = fmt.Sprintf("%.0f cm", act.AscentMeters*100)
	}

	hr := make([]Observation, 0, len(act.HeartRate))
	for _, s := range act.HeartRate {
		hr = append(hr, Observation{
			Type:  healthexport.TypeHeartRate,
			Start: s.Time,
			End:   s.Time.Add(time.Second),
			Value: s.Value,
			Unit:  "count/min",
		})
	}
	dist := make([]Observation, 0, len(act.Distance))
	for _, s := range act.Distance {
		dist = append(dist, Observation{
			Type:  healthexport.TypeDistanceWalkingRunning,
			Start: s.Time.Add(-time.Second),
			End:   s.Time,
			Value: s.Value,
			Unit:  "m",
		})
	}
	return AnalyzeWorkout(w, hr, dist, zones)
}

func sampleValues(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	max := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return max
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}

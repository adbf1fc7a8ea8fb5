package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	healthxl "github.com/GRIGOR2T/apple-health-to-excel"
	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

// Job names, in the order Run executes them by default.
const (
	JobVO2Max          = "vo2max"
	JobWeightVO2       = "weight_vo2"
	JobWalksByWeek     = "walks_by_week"
	JobDailyWalk       = "daily_walk"
	JobWeeklyFromDaily = "weekly_from_daily"
	JobLastWalk        = "last_walk"
)

// DefaultJobs lists every job.
var DefaultJobs = []string{
	JobVO2Max,
	JobWeightVO2,
	JobWalksByWeek,
	JobDailyWalk,
	JobWeeklyFromDaily,
	JobLastWalk,
}

type jobFunc func(env *jobEnv) (*Report, error)

var jobs = map[string]jobFunc{
	JobVO2Max:          runVO2Max,
	JobWeightVO2:       runWeightVO2,
	JobWalksByWeek:     runWalksByWeek,
	JobDailyWalk:       runDailyWalk,
	JobWeeklyFromDaily: runWeeklyFromDaily,
	JobLastWalk:        runLastWalk,
}

// jobEnv is what a job may use. Jobs share nothing else; each one streams
// the export itself.
type jobEnv struct {
	path   string
	opts   Options
	zones  healthxl.ZoneTable
	logger *slog.Logger
	stats  healthxl.ScanStats
}

func (e *jobEnv) scan(records, workouts *healthxl.Filter, onRecord func(healthxl.Observation), onWorkout func(healthxl.Workout)) error {
	stats, err := healthxl.Scanner{
		Records:       records,
		Workouts:      workouts,
		OnRecord:      onRecord,
		OnWorkout:     onWorkout,
		Logger:        e.logger,
		ProgressEvery: e.opts.ProgressEvery,
	}.Scan(e.path)
	e.stats.Events += stats.Events
	e.stats.RecordsAccepted += stats.RecordsAccepted
	e.stats.WorkoutsAccepted += stats.WorkoutsAccepted
	e.stats.Malformed += stats.Malformed
	return err
}

func runVO2Max(env *jobEnv) (*Report, error) {
	f := healthxl.NewFilter(healthexport.TypeVO2Max).Since(env.opts.Cutoffs.VO2Max)
	acc := healthxl.NewDailyAccumulator(healthxl.ReduceMax)
	if err := env.scan(&f, nil, func(o healthxl.Observation) { acc.Add(o.Start, o.Value) }, nil); err != nil {
		return nil, err
	}
	daily := acc.Values()

	chart := Table{
		Name: "vo2max_daily",
		Columns: []Column{
			{Name: "date", Title: "Date", Kind: KindDate},
			{Name: "vo2max", Title: "VO2max", Kind: KindFloat},
		},
	}
	for _, dv := range daily {
		chart.Rows = append(chart.Rows, []any{dv.Date, dv.Value})
	}

	byMonth := Table{
		Name: "vo2max_by_month",
		Columns: []Column{
			{Name: "month", Title: "Month", Kind: KindString},
			{Name: "date", Title: "Date", Kind: KindDate},
			{Name: "vo2max", Title: "VO2max", Kind: KindFloat},
		},
	}
	for _, g := range healthxl.GroupByMonth(daily) {
		for _, dv := range g.Days {
			byMonth.Rows = append(byMonth.Rows, []any{g.Month.String(), dv.Date, dv.Value})
		}
	}
	return &Report{Job: JobVO2Max, Tables: []Table{byMonth, chart}}, nil
}

func runWeightVO2(env *jobEnv) (*Report, error) {
	f := healthxl.NewFilter(healthexport.TypeBodyMass, healthexport.TypeVO2Max).Since(env.opts.Cutoffs.Weight)
	weight := healthxl.NewDailyAccumulator(healthxl.ReduceMean)
	vo2 := healthxl.NewDailyAccumulator(healthxl.ReduceMax)
	err := env.scan(&f, nil, func(o healthxl.Observation) {
		if o.Type == healthexport.TypeBodyMass {
			weight.Add(o.Start, o.Value)
			return
		}
		vo2.Add(o.Start, o.Value)
	}, nil)
	if err != nil {
		return nil, err
	}

	rows := healthxl.BuildWeightVO2(weight.Values(), vo2.Values())
	t := Table{
		Name: "weight_vs_vo2",
		Columns: []Column{
			{Name: "date", Title: "Date", Kind: KindDate},
			{Name: "weight_kg", Title: "Weight, kg", Kind: KindFloat},
			{Name: "vo2max", Title: "VO2max", Kind: KindFloat},
			{Name: "days_from_start", Title: "Days from start", Kind: KindInt},
			{Name: "weight_delta_kg", Title: "Weight change from start, kg", Kind: KindFloat},
			{Name: "vo2max_delta", Title: "VO2max change from start", Kind: KindFloat},
			{Name: "vo2max_gain_per_kg_lost", Title: "VO2max gain per kg lost", Kind: KindFloat},
		},
	}
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		t.Rows = append(t.Rows, []any{
			r.Date,
			roundPtr(r.WeightKg, 2),
			roundPtr(r.VO2Max, 2),
			r.DaysFromStart,
			roundPtr(r.WeightDeltaKg, 2),
			roundPtr(r.VO2Delta, 2),
			roundPtr(r.VO2GainPerKgLost, 2),
		})
	}
	return &Report{Job: JobWeightVO2, Tables: []Table{t}}, nil
}

func runWalksByWeek(env *jobEnv) (*Report, error) {
	f := healthxl.NewFilter(healthexport.ActivityWalking).Since(env.opts.Cutoffs.Walks)
	var entries []healthxl.WorkoutEntry
	err := env.scan(nil, &f, nil, func(w healthxl.Workout) {
		entries = append(entries, healthxl.WorkoutEntry{
			Date:        w.Start,
			DistanceKm:  w.DistanceKm(),
			DurationMin: w.DurationMinutes,
		})
	})
	if err != nil {
		return nil, err
	}

	t := Table{
		Name: "weekly_walks",
		Columns: []Column{
			{Name: "week", Title: "Week", Kind: KindString},
			{Name: "week_start", Title: "Week start", Kind: KindDate},
			{Name: "week_end", Title: "Week end", Kind: KindDate},
			{Name: "workouts", Title: "Workouts", Kind: KindInt},
			{Name: "distance_km", Title: "Distance, km", Kind: KindFloat},
			{Name: "duration_min", Title: "Time, min", Kind: KindFloat},
			{Name: "time_hours", Title: "Time, h", Kind: KindFloat},
			{Name: "avg_pace_min_per_km", Title: "Avg pace, min/km", Kind: KindFloat},
		},
	}
	for _, w := range healthxl.AggregateWeeklyWorkouts(entries) {
		t.Rows = append(t.Rows, []any{
			w.Week.String(),
			w.FirstDate,
			w.LastDate,
			w.Workouts,
			round(w.DistanceKm, 2),
			round(w.DurationMin, 1),
			round(w.Hours, 2),
			roundPtr(w.AvgPaceMinPerKm, 2),
		})
	}
	return &Report{Job: JobWalksByWeek, Tables: []Table{t}}, nil
}

// dailyWalks streams watch distance records and watch walking workouts
// since cutoff and splits each day's distance.
func dailyWalks(env *jobEnv, cutoff time.Time) ([]healthxl.DailyWalkRow, error) {
	marker := env.opts.SourceMarker
	records := healthxl.NewFilter(healthexport.DistanceTypes...).Since(cutoff).From(marker)
	workouts := healthxl.NewFilter(healthexport.ActivityWalking).Since(cutoff).From(marker)

	recordDaily := healthxl.NewDailyAccumulator(healthxl.ReduceSum)
	workoutDaily := healthxl.NewDailyAccumulator(healthxl.ReduceSum)
	err := env.scan(&records, &workouts,
		func(o healthxl.Observation) { recordDaily.Add(o.Start, healthxl.DistanceToKm(o.Value, o.Unit)) },
		func(w healthxl.Workout) { workoutDaily.Add(w.Start, w.DistanceKm()) },
	)
	if err != nil {
		return nil, err
	}
	return healthxl.BuildDailyWalks(recordDaily.Values(), workoutDaily.Values()), nil
}

func runDailyWalk(env *jobEnv) (*Report, error) {
	days, err := dailyWalks(env, env.opts.Cutoffs.Walks)
	if err != nil {
		return nil, err
	}
	t := Table{
		Name: "daily_walk",
		Columns: []Column{
			{Name: "date", Title: "Date", Kind: KindDate},
			{Name: "total_km", Title: "Total walking, km", Kind: KindFloat},
			{Name: "workout_km", Title: "Walking in workouts, km", Kind: KindFloat},
			{Name: "non_workout_km", Title: "Walking outside workouts, km", Kind: KindFloat},
		},
	}
	for _, d := range days {
		t.Rows = append(t.Rows, []any{d.Date, round(d.TotalKm, 2), round(d.WorkoutKm, 2), round(d.NonWorkoutKm, 2)})
	}
	return &Report{Job: JobDailyWalk, Tables: []Table{t}}, nil
}

func runWeeklyFromDaily(env *jobEnv) (*Report, error) {
	cutoff := env.opts.Cutoffs.WeeklyFromDaily
	if cutoff.Before(env.opts.Cutoffs.Walks) {
		cutoff = env.opts.Cutoffs.Walks
	}
	days, err := dailyWalks(env, cutoff)
	if err != nil {
		return nil, err
	}

	t := Table{
		Name: "weekly_from_daily",
		Columns: []Column{
			{Name: "week", Title: "Week", Kind: KindString},
			{Name: "week_start", Title: "Week start", Kind: KindDate},
			{Name: "week_end", Title: "Week end", Kind: KindDate},
			{Name: "days_with_data", Title: "Days with data", Kind: KindInt},
			{Name: "total_km", Title: "Total walking, km", Kind: KindFloat},
			{Name: "workout_km", Title: "Walking in workouts, km", Kind: KindFloat},
			{Name: "non_workout_km", Title: "Walking outside workouts, km", Kind: KindFloat},
			{Name: "avg_total_km_per_day", Title: "Avg total km/day", Kind: KindFloat},
			{Name: "avg_non_workout_km_per_day", Title: "Avg outside workouts km/day", Kind: KindFloat},
			{Name: "non_workout_share_pct", Title: "Outside workouts share, %", Kind: KindFloat},
		},
	}
	for _, w := range healthxl.AggregateWeeklyWalks(days) {
		t.Rows = append(t.Rows, []any{
			w.Week.String(),
			w.FirstDate,
			w.LastDate,
			w.DaysWithData,
			round(w.TotalKm, 2),
			round(w.WorkoutKm, 2),
			round(w.NonWorkoutKm, 2),
			round(w.AvgTotalKmPerDay, 2),
			round(w.AvgNonWorkoutKmPerDay, 2),
			roundPtr(w.NonWorkoutSharePct, 1),
		})
	}
	return &Report{Job: JobWeeklyFromDaily, Tables: []Table{t}}, nil
}

func runLastWalk(env *jobEnv) (*Report, error) {
	var (
		latest healthxl.Workout
		found  bool
	)
	wf := healthxl.NewFilter(healthexport.ActivityWalking)
	err := env.scan(nil, &wf, nil, func(w healthxl.Workout) {
		if !found || w.Start.After(latest.Start) {
			latest, found = w, true
		}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, healthxl.ErrNoMatchingWorkout
	}
	env.logger.Info("latest walk", "start", latest.Start, "end", latest.End, "distance_km", latest.DistanceKm())

	window := healthxl.Window{Start: latest.Start, End: latest.End}
	rf := healthxl.NewFilter(
		healthexport.TypeHeartRate,
		healthexport.TypeDistanceWalkingRunning,
		healthexport.TypeDistanceWalking,
	).From(env.opts.SourceMarker)
	var hr, dist []healthxl.Observation
	err = env.scan(&rf, nil, func(o healthxl.Observation) {
		if !window.Overlaps(o.Start, o.End) {
			return
		}
		if o.Type == healthexport.TypeHeartRate {
			hr = append(hr, o)
			return
		}
		dist = append(dist, o)
	}, nil)
	if err != nil {
		return nil, err
	}

	report, err := healthxl.AnalyzeWorkout(latest, hr, dist, env.zones)
	if err != nil {
		return nil, err
	}
	env.logger.Info("distance encoding", "encoding", string(report.DistanceEncoding), "samples", report.DistanceSamples)
	return &Report{Job: JobLastWalk, Tables: lastWalkTables(report)}, nil
}

func lastWalkTables(r *healthxl.WorkoutReport) []Table {
	summary := Table{
		Name: "last_walk_summary",
		Columns: []Column{
			{Name: "metric", Title: r.StartTime.Format("Monday, January 02"), Kind: KindString},
			{Name: "value", Title: "Value", Kind: KindString},
		},
	}
	add := func(metric, value string) {
		summary.Rows = append(summary.Rows, []any{metric, value})
	}
	add("Workout Time", healthxl.FormatClock(r.DurationMinutes*60))
	add("Elapsed Time", healthxl.FormatClock(r.ElapsedMinutes*60))
	add("Active Kilocalories", fmt.Sprintf("%.0f KCAL", math.Round(r.ActiveKcal)))
	add("Total Kilocalories", fmt.Sprintf("%.0f KCAL", math.Round(r.TotalKcal)))
	add("Avg. Pace", paceLabel(r.AvgPaceSecPerKm))
	distance := ""
	if r.DistanceKm > 0 {
		distance = fmt.Sprintf("%.2f KM", r.DistanceKm)
	}
	add("Distance", distance)
	elevation := ""
	if r.ElevationGainM != nil {
		elevation = fmt.Sprintf("%.0f M", *r.ElevationGainM)
	}
	add("Elevation Gain", elevation)
	add("Avg. Heart Rate", fmt.Sprintf("%.0f BPM", math.Round(r.AvgHeartRate)))
	add("Distance Encoding", string(r.DistanceEncoding))

	zones := Table{
		Name: "last_walk_zones",
		Columns: []Column{
			{Name: "zone", Title: "Zone", Kind: KindString},
			{Name: "range", Title: "Range", Kind: KindString},
			{Name: "time", Title: "Time", Kind: KindString},
			{Name: "seconds", Title: "Seconds", Kind: KindFloat},
			{Name: "percentage", Title: "%", Kind: KindFloat},
		},
	}
	for _, z := range r.Zones {
		zones.Rows = append(zones.Rows, []any{
			z.Name,
			z.RangeLabel(),
			healthxl.FormatMinSec(z.Seconds),
			z.Seconds,
			round(z.Percentage, 1),
		})
	}

	splits := Table{
		Name: "last_walk_splits",
		Columns: []Column{
			{Name: "km", Title: "KM", Kind: KindInt},
			{Name: "target_km", Title: "Target, km", Kind: KindFloat},
			{Name: "time", Title: "Time", Kind: KindString},
			{Name: "duration_s", Title: "Duration, s", Kind: KindFloat},
			{Name: "pace", Title: "Pace", Kind: KindString},
			{Name: "heart_rate", Title: "Heart Rate", Kind: KindString},
		},
	}
	for _, sp := range r.Splits {
		splits.Rows = append(splits.Rows, []any{
			sp.Index,
			round(sp.TargetKm, 2),
			sp.Arrival.Format("15:04"),
			round(sp.Duration.Seconds(), 1),
			paceLabel(sp.PaceSecPerKm),
			fmt.Sprintf("%d BPM", sp.AvgHeartRate),
		})
	}
	return []Table{summary, zones, splits}
}

func paceLabel(secPerKm float64) string {
	p := healthxl.FormatPace(secPerKm)
	if p == "" {
		return ""
	}
	return p + "/KM"
}

// resolveJobs validates names against the registry, keeping DefaultJobs
// order and dropping duplicates.
func resolveJobs(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), DefaultJobs...), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := jobs[n]; !ok {
			known := append([]string(nil), DefaultJobs...)
			sort.Strings(known)
			return nil, fmt.Errorf("unknown job %q (expected one of %s)", n, strings.Join(known, "|"))
		}
		want[n] = true
	}
	out := make([]string, 0, len(want))
	for _, n := range DefaultJobs {
		if want[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// roundPtr returns nil for a missing value so writers emit an empty cell.
func roundPtr(v *float64, places int) any {
	if v == nil {
		return nil
	}
	return round(*v, places)
}

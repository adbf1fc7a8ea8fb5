package healthxl

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScannerCountsMalformedAndAccepted(t *testing.T) {
	path := lastWalkExport(t)
	f := NewFilter(healthexport.TypeHeartRate).From(DefaultSourceMarker)

	var got []Observation
	stats, err := Scanner{
		Records:       &f,
		OnRecord:      func(o Observation) { got = append(got, o) },
		Logger:        quietLogger(),
		ProgressEvery: 10,
	}.Scan(path)
	require.NoError(t, err)

	assert.Equal(t, 2+31+1+1+5, stats.Events)
	assert.Equal(t, 31, stats.RecordsAccepted)
	assert.Equal(t, 1, stats.Malformed)
	assert.Zero(t, stats.WorkoutsAccepted)
	require.Len(t, got, 31)
	for _, o := range got {
		assert.Equal(t, 120.0, o.Value)
		assert.Contains(t, o.Source, "Apple Watch")
	}
}

func TestScannerMissingSource(t *testing.T) {
	_, err := Scanner{Logger: quietLogger()}.Scan(filepath.Join(t.TempDir(), "export.xml"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestScannerStopsOnBrokenDocument(t *testing.T) {
	b := &exportBuilder{}
	b.record(healthexport.TypeHeartRate, watchSource, "count/min", at(9, 0), at(9, 0), "100")
	b.raw(`<Record type="x" value="1"></Workout>`)
	path := b.write(t)

	f := NewFilter()
	stats, err := Scanner{Records: &f, Logger: quietLogger()}.Scan(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedRecord))
	assert.Equal(t, 1, stats.RecordsAccepted)
}

func TestCollectObservationsAppliesCutoff(t *testing.T) {
	b := &exportBuilder{}
	b.record(healthexport.TypeVO2Max, watchSource, "mL/min·kg", time.Date(2025, 8, 9, 23, 0, 0, 0, time.UTC), time.Date(2025, 8, 9, 23, 0, 0, 0, time.UTC), "40.1")
	b.record(healthexport.TypeVO2Max, watchSource, "mL/min·kg", time.Date(2025, 8, 10, 7, 0, 0, 0, time.UTC), time.Date(2025, 8, 10, 7, 0, 0, 0, time.UTC), "40.6")
	b.record(healthexport.TypeBodyMass, phoneSource, "kg", time.Date(2025, 8, 10, 7, 0, 0, 0, time.UTC), time.Date(2025, 8, 10, 7, 0, 0, 0, time.UTC), "81.2")
	path := b.write(t)

	obs, stats, err := CollectObservations(path, NewFilter(healthexport.TypeVO2Max).Since(time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)), quietLogger())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 40.6, obs[0].Value)
	assert.Equal(t, 3, stats.Events)
}

func TestFindLatestWorkout(t *testing.T) {
	path := lastWalkExport(t)

	w, err := FindLatestWorkout(path, NewFilter(healthexport.ActivityWalking), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), w.Start)
	assert.Equal(t, at(9, 30), w.End)
	assert.InDelta(t, 2.5, w.DistanceKm(), 1e-9)

	_, err = FindLatestWorkout(path, NewFilter(healthexport.ActivityRunning), quietLogger())
	assert.ErrorIs(t, err, ErrNoMatchingWorkout)
}

func TestAnalyzeLatestWorkout(t *testing.T) {
	path := lastWalkExport(t)

	report, err := AnalyzeLatestWorkout(path, Config{SourceMarker: DefaultSourceMarker, Logger: quietLogger()})
	require.NoError(t, err)

	assert.Equal(t, healthexport.ActivityWalking, report.ActivityType)
	assert.Equal(t, at(9, 0), report.StartTime)
	assert.InDelta(t, 30, report.DurationMinutes, 1e-9)
	assert.InDelta(t, 2.5, report.DistanceKm, 1e-9)
	assert.InDelta(t, 720, report.AvgPaceSecPerKm, 1e-9)
	assert.InDelta(t, 150.4, report.ActiveKcal, 1e-9)
	assert.InDelta(t, 190.6, report.TotalKcal, 1e-9)
	require.NotNil(t, report.ElevationGainM)
	assert.InDelta(t, 23.5, *report.ElevationGainM, 1e-9)

	// samples at 09:00 and 09:30 only touch the window edges
	assert.Equal(t, 29, report.HeartRateSamples)
	assert.Equal(t, 120.0, report.AvgHeartRate)
	assert.Equal(t, 120.0, report.MaxHeartRate)

	require.Len(t, report.Zones, 5)
	assert.Equal(t, 1680.0, report.Zones[1].Seconds)
	assert.InDelta(t, 100, report.Zones[1].Percentage, 1e-9)

	assert.Equal(t, EncodingIncremental, report.DistanceEncoding)
	assert.Equal(t, 5, report.DistanceSamples)
	require.Len(t, report.Splits, 3)
	assert.Equal(t, at(9, 10), report.Splits[0].Arrival)
	assert.Equal(t, at(9, 20), report.Splits[1].Arrival)
	assert.Equal(t, at(9, 25), report.Splits[2].Arrival)
	assert.Equal(t, 10*time.Minute, report.Splits[0].Duration)
	assert.Equal(t, 5*time.Minute, report.Splits[2].Duration)
	assert.True(t, report.Splits[2].Partial)
	assert.InDelta(t, 600, report.Splits[2].PaceSecPerKm, 1e-9)
	assert.Equal(t, 120, report.Splits[1].AvgHeartRate)

	assert.Contains(t, report.Notes, "Workout: Walking")
	assert.Contains(t, report.Notes, "KM 3 (2.50)")
	assert.Contains(t, report.Notes, "Easy aerobic effort")
}

func TestAnalyzeLatestWorkoutWithoutHeartRate(t *testing.T) {
	b := &exportBuilder{}
	b.raw(walkingWorkoutXML(at(9, 0), at(9, 30), 2.5))
	b.record(healthexport.TypeHeartRate, phoneSource, "count/min", at(9, 10), at(9, 10), "120")
	path := b.write(t)

	_, err := AnalyzeLatestWorkout(path, Config{SourceMarker: DefaultSourceMarker, Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrNoHeartRateData)

	_, err = AnalyzeLatestWorkout(path, Config{ActivityType: healthexport.ActivityHiking, Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrNoMatchingWorkout)
}

func TestAnalyzeFIT(t *testing.T) {
	start := at(9, 0)
	act := &healthexport.FITActivity{
		Sport:          "walking",
		Start:          start,
		End:            start.Add(20 * time.Minute),
		TimerSeconds:   20 * 60,
		DistanceMeters: 2000,
		Calories:       120,
		AscentMeters:   12,
	}
	for i, hr := range []float64{100, 120, 140, 160} {
		act.HeartRate = append(act.HeartRate, healthexport.FITSample{Time: start.Add(time.Duration(5*i) * time.Minute), Value: hr})
	}
	for i := 1; i <= 4; i++ {
		act.Distance = append(act.Distance, healthexport.FITSample{Time: start.Add(time.Duration(5*i) * time.Minute), Value: float64(500 * i)})
	}

	report, err := AnalyzeFIT(act, ZoneTable{})
	require.NoError(t, err)
	assert.Equal(t, "FIT", report.Source)
	assert.InDelta(t, 2, report.DistanceKm, 1e-9)
	assert.InDelta(t, 120, report.ActiveKcal, 1e-9)
	require.NotNil(t, report.ElevationGainM)
	assert.InDelta(t, 12, *report.ElevationGainM, 1e-9)

	assert.Equal(t, EncodingCumulative, report.DistanceEncoding)
	require.Len(t, report.Splits, 2)
	assert.Equal(t, start.Add(10*time.Minute), report.Splits[0].Arrival)
	assert.Equal(t, start.Add(20*time.Minute), report.Splits[1].Arrival)

	assert.Equal(t, 300.0, report.Zones[0].Seconds)
	assert.Equal(t, 300.0, report.Zones[1].Seconds)
	assert.Equal(t, 300.0, report.Zones[2].Seconds)
	assert.Zero(t, report.Zones[3].Seconds)
}

func TestBuildWorkoutNotesFormatting(t *testing.T) {
	assert.Equal(t, "1:05:09", FormatClock(3909))
	assert.Equal(t, "0:00:00", FormatClock(-3))
	assert.Equal(t, "65:09", FormatMinSec(3909))
	assert.Equal(t, "00:00", FormatMinSec(0))
	assert.Equal(t, "5'07\"", FormatPace(307.9))
	assert.Empty(t, FormatPace(0))
	assert.Empty(t, BuildWorkoutNotes(nil))

	hard := &WorkoutReport{
		ActivityType: "HKWorkoutActivityTypeRunning",
		Zones: []ZoneDuration{
			{Zone: Zone{Name: "Zone 1"}, Percentage: 10},
			{Zone: Zone{Name: "Zone 2"}, Percentage: 10},
			{Zone: Zone{Name: "Zone 3"}, Percentage: 80},
		},
	}
	notes := BuildWorkoutNotes(hard)
	assert.True(t, strings.HasPrefix(notes, "Workout: Running"))
	assert.Contains(t, notes, "hard session")
	assert.Contains(t, notes, "No distance samples inside the workout window.")
}

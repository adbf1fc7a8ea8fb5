package healthxl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obsAt(t time.Time, v float64) Observation {
	return Observation{Start: t, End: t, Value: v}
}

func TestAggregateDailyReducers(t *testing.T) {
	obs := []Observation{
		obsAt(day(2025, 9, 2).Add(20*time.Hour), 4),
		obsAt(day(2025, 9, 1).Add(8*time.Hour), 2),
		obsAt(day(2025, 9, 1).Add(23*time.Hour), 6),
		obsAt(day(2025, 9, 1).Add(time.Hour), 1),
	}

	tests := []struct {
		reducer Reducer
		first   float64
	}{
		{ReduceMax, 6},
		{ReduceMean, 3},
		{ReduceSum, 9},
		{ReduceCount, 3},
	}
	for _, tt := range tests {
		t.Run(tt.reducer.String(), func(t *testing.T) {
			got := AggregateDaily(obs, tt.reducer)
			require.Len(t, got, 2)
			assert.Equal(t, day(2025, 9, 1), got[0].Date)
			assert.InDelta(t, tt.first, got[0].Value, 1e-9)
			assert.Equal(t, 3, got[0].Samples)
			assert.Equal(t, day(2025, 9, 2), got[1].Date)
		})
	}
}

func TestAggregateDailyIsIdempotentOverOrder(t *testing.T) {
	a := []Observation{obsAt(day(2025, 9, 1), 1), obsAt(day(2025, 9, 3), 2), obsAt(day(2025, 9, 1), 5)}
	b := []Observation{a[2], a[1], a[0]}
	assert.Equal(t, AggregateDaily(a, ReduceMean), AggregateDaily(b, ReduceMean))
}

func TestOuterJoinKeepsNulls(t *testing.T) {
	weight := []DailyValue{{Date: day(2025, 8, 10), Value: 82.1}, {Date: day(2025, 8, 12), Value: 81.7}}
	vo2 := []DailyValue{{Date: day(2025, 8, 11), Value: 41.2}, {Date: day(2025, 8, 12), Value: 41.5}}

	rows := OuterJoin(weight, vo2)
	require.Len(t, rows, 3)

	assert.Equal(t, day(2025, 8, 10), rows[0].Date)
	require.NotNil(t, rows[0].Values[0])
	assert.Nil(t, rows[0].Values[1])

	assert.Nil(t, rows[1].Values[0])
	require.NotNil(t, rows[1].Values[1])
	assert.Equal(t, 41.2, *rows[1].Values[1])

	require.NotNil(t, rows[2].Values[0])
	require.NotNil(t, rows[2].Values[1])
}

func TestWeekOfUsesISOWeeks(t *testing.T) {
	assert.Equal(t, WeekKey{2025, 40}, WeekOf(day(2025, 9, 29)))
	assert.Equal(t, WeekKey{2025, 40}, WeekOf(day(2025, 10, 5)))
	assert.Equal(t, WeekKey{2025, 41}, WeekOf(day(2025, 10, 6)))
	assert.Equal(t, WeekKey{2026, 1}, WeekOf(day(2025, 12, 29)))
	assert.Equal(t, "2025-W40", WeekOf(day(2025, 10, 1)).String())
	assert.Equal(t, day(2025, 9, 29), WeekKey{2025, 40}.Monday())
	assert.Equal(t, day(2024, 12, 30), WeekKey{2025, 1}.Monday())
}

func TestAggregateWeeklyWorkouts(t *testing.T) {
	entries := []WorkoutEntry{
		{Date: day(2025, 9, 29).Add(7 * time.Hour), DistanceKm: 3, DurationMin: 33},
		{Date: day(2025, 10, 5).Add(18 * time.Hour), DistanceKm: 5, DurationMin: 55},
		{Date: day(2025, 10, 6).Add(9 * time.Hour), DistanceKm: 0, DurationMin: 20},
	}

	weeks := AggregateWeeklyWorkouts(entries)
	require.Len(t, weeks, 2)

	newest := weeks[0]
	assert.Equal(t, WeekKey{2025, 41}, newest.Week)
	assert.Nil(t, newest.AvgPaceMinPerKm)
	assert.Equal(t, 1, newest.Workouts)

	w40 := weeks[1]
	assert.Equal(t, WeekKey{2025, 40}, w40.Week)
	assert.Equal(t, 2, w40.Workouts)
	assert.InDelta(t, 8, w40.DistanceKm, 1e-9)
	assert.InDelta(t, 88, w40.DurationMin, 1e-9)
	assert.InDelta(t, 88.0/60.0, w40.Hours, 1e-9)
	assert.Equal(t, day(2025, 9, 29), w40.FirstDate)
	assert.Equal(t, day(2025, 10, 5), w40.LastDate)
	require.NotNil(t, w40.AvgPaceMinPerKm)
	assert.InDelta(t, 11, *w40.AvgPaceMinPerKm, 1e-9)
}

func TestGroupByMonth(t *testing.T) {
	daily := []DailyValue{
		{Date: day(2025, 8, 30), Value: 40},
		{Date: day(2025, 8, 31), Value: 41},
		{Date: day(2025, 9, 1), Value: 42},
	}
	groups := GroupByMonth(daily)
	require.Len(t, groups, 2)
	assert.Equal(t, "2025-08", groups[0].Month.String())
	assert.Len(t, groups[0].Days, 2)
	assert.Equal(t, "2025-09", groups[1].Month.String())
}

func TestBuildWeightVO2(t *testing.T) {
	weight := []DailyValue{{Date: day(2025, 8, 10), Value: 80}, {Date: day(2025, 8, 12), Value: 79}}
	vo2 := []DailyValue{{Date: day(2025, 8, 11), Value: 40}, {Date: day(2025, 8, 12), Value: 41}}

	rows := BuildWeightVO2(weight, vo2)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].DaysFromStart)
	require.NotNil(t, rows[0].WeightDeltaKg)
	assert.Zero(t, *rows[0].WeightDeltaKg)
	assert.Nil(t, rows[0].VO2Delta)
	assert.Nil(t, rows[0].VO2GainPerKgLost)

	assert.Equal(t, 1, rows[1].DaysFromStart)
	assert.Nil(t, rows[1].WeightDeltaKg)
	require.NotNil(t, rows[1].VO2Delta)
	assert.Zero(t, *rows[1].VO2Delta)
	assert.Nil(t, rows[1].VO2GainPerKgLost)

	last := rows[2]
	assert.Equal(t, 2, last.DaysFromStart)
	assert.InDelta(t, -1, *last.WeightDeltaKg, 1e-9)
	assert.InDelta(t, 1, *last.VO2Delta, 1e-9)
	require.NotNil(t, last.VO2GainPerKgLost)
	assert.InDelta(t, 1, *last.VO2GainPerKgLost, 1e-9)

	assert.Nil(t, BuildWeightVO2(nil, nil))
}

func TestBuildDailyWalks(t *testing.T) {
	records := []DailyValue{{Date: day(2025, 10, 1), Value: 5}, {Date: day(2025, 10, 2), Value: 2}}
	workouts := []DailyValue{
		{Date: day(2025, 10, 1), Value: 3},
		{Date: day(2025, 10, 2), Value: 2.5},
		{Date: day(2025, 10, 3), Value: 1},
	}

	rows := BuildDailyWalks(records, workouts)
	require.Len(t, rows, 2)
	assert.Equal(t, day(2025, 10, 2), rows[0].Date)
	assert.Equal(t, 2.5, rows[0].WorkoutKm)
	assert.Zero(t, rows[0].NonWorkoutKm)
	assert.Equal(t, day(2025, 10, 1), rows[1].Date)
	assert.InDelta(t, 2, rows[1].NonWorkoutKm, 1e-9)

	rows = BuildDailyWalks(records, nil)
	assert.Equal(t, rows[1].TotalKm, rows[1].NonWorkoutKm)
}

func TestAggregateWeeklyWalks(t *testing.T) {
	days := []DailyWalkRow{
		{Date: day(2025, 10, 7), TotalKm: 6, WorkoutKm: 4, NonWorkoutKm: 2},
		{Date: day(2025, 10, 6), TotalKm: 4, WorkoutKm: 0, NonWorkoutKm: 4},
		{Date: day(2025, 10, 1), TotalKm: 0, WorkoutKm: 0, NonWorkoutKm: 0},
	}

	weeks := AggregateWeeklyWalks(days)
	require.Len(t, weeks, 2)

	w41 := weeks[0]
	assert.Equal(t, WeekKey{2025, 41}, w41.Week)
	assert.Equal(t, 2, w41.DaysWithData)
	assert.InDelta(t, 10, w41.TotalKm, 1e-9)
	assert.InDelta(t, 5, w41.AvgTotalKmPerDay, 1e-9)
	assert.InDelta(t, 3, w41.AvgNonWorkoutKmPerDay, 1e-9)
	require.NotNil(t, w41.NonWorkoutSharePct)
	assert.InDelta(t, 60, *w41.NonWorkoutSharePct, 1e-9)
	assert.Equal(t, day(2025, 10, 6), w41.FirstDate)
	assert.Equal(t, day(2025, 10, 7), w41.LastDate)

	assert.Nil(t, weeks[1].NonWorkoutSharePct)
}

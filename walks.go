package healthxl

import (
	"sort"
	"time"
)

// DailyWalkRow splits one day of walking distance into the part recorded
// during walking workouts and the rest.
type DailyWalkRow struct {
	Date         time.Time `json:"date"`
	TotalKm      float64   `json:"total_km"`
	WorkoutKm    float64   `json:"workout_km"`
	NonWorkoutKm float64   `json:"non_workout_km"`
}

// BuildDailyWalks left-joins per-day workout distance onto per-day record
// distance. Days without record distance are dropped, missing workout
// distance counts as zero and the non-workout part never goes negative.
// Rows are sorted newest first.
func BuildDailyWalks(recordDaily, workoutDaily []DailyValue) []DailyWalkRow {
	workouts := make(map[time.Time]float64, len(workoutDaily))
	for _, dv := range workoutDaily {
		workouts[DateOf(dv.Date)] += dv.Value
	}

	out := make([]DailyWalkRow, 0, len(recordDaily))
	for _, dv := range recordDaily {
		date := DateOf(dv.Date)
		row := DailyWalkRow{
			Date:      date,
			TotalKm:   dv.Value,
			WorkoutKm: workouts[date],
		}
		row.NonWorkoutKm = row.TotalKm - row.WorkoutKm
		if row.NonWorkoutKm < 0 {
			row.NonWorkoutKm = 0
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// WeeklyWalkSummary is the ISO-week rollup of daily walk rows.
type WeeklyWalkSummary struct {
	Week                  WeekKey   `json:"week"`
	FirstDate             time.Time `json:"first_date"`
	LastDate              time.Time `json:"last_date"`
	DaysWithData          int       `json:"days_with_data"`
	TotalKm               float64   `json:"total_km"`
	WorkoutKm             float64   `json:"workout_km"`
	NonWorkoutKm          float64   `json:"non_workout_km"`
	AvgTotalKmPerDay      float64   `json:"avg_total_km_per_day"`
	AvgNonWorkoutKmPerDay float64   `json:"avg_non_workout_km_per_day"`
	NonWorkoutSharePct    *float64  `json:"non_workout_share_pct,omitempty"`
}

// AggregateWeeklyWalks rolls daily walk rows up into ISO weeks, newest
// first. Days are counted by distinct date. The non-workout share is only
// set for weeks with positive total distance.
func AggregateWeeklyWalks(days []DailyWalkRow) []WeeklyWalkSummary {
	type weekState struct {
		summary WeeklyWalkSummary
		dates   map[time.Time]struct{}
	}
	byWeek := make(map[WeekKey]*weekState)
	for _, d := range days {
		date := DateOf(d.Date)
		key := WeekOf(date)
		st, ok := byWeek[key]
		if !ok {
			st = &weekState{
				summary: WeeklyWalkSummary{Week: key, FirstDate: date, LastDate: date},
				dates:   make(map[time.Time]struct{}),
			}
			byWeek[key] = st
		}
		s := &st.summary
		st.dates[date] = struct{}{}
		s.TotalKm += d.TotalKm
		s.WorkoutKm += d.WorkoutKm
		s.NonWorkoutKm += d.NonWorkoutKm
		if date.Before(s.FirstDate) {
			s.FirstDate = date
		}
		if date.After(s.LastDate) {
			s.LastDate = date
		}
	}

	out := make([]WeeklyWalkSummary, 0, len(byWeek))
	for _, st := range byWeek {
		s := st.summary
		s.DaysWithData = len(st.dates)
		s.AvgTotalKmPerDay = s.TotalKm / float64(s.DaysWithData)
		s.AvgNonWorkoutKmPerDay = s.NonWorkoutKm / float64(s.DaysWithData)
		if s.TotalKm > 0 {
			share := s.NonWorkoutKm / s.TotalKm * 100.0
			s.NonWorkoutSharePct = &share
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Week.Before(out[i].Week)
	})
	return out
}

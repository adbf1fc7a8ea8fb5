package healthxl

import (
	"fmt"
	"sort"
	"time"
)

// Reducer folds the values of one calendar day into a single number.
type Reducer int

const (
	ReduceMax Reducer = iota
	ReduceMean
	ReduceSum
	ReduceCount
)

func (r Reducer) String() string {
	switch r {
	case ReduceMax:
		return "max"
	case ReduceMean:
		return "mean"
	case ReduceSum:
		return "sum"
	case ReduceCount:
		return "count"
	default:
		return fmt.Sprintf("reducer(%d)", int(r))
	}
}

// DailyValue is one reduced value per calendar date.
type DailyValue struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Samples int       `json:"samples"`
}

type dayState struct {
	sum float64
	max float64
	n   int
}

// DailyAccumulator reduces values per calendar date as they stream in. Memory
// grows with the number of distinct dates, not with the number of samples.
type DailyAccumulator struct {
	reducer Reducer
	days    map[time.Time]*dayState
}

// NewDailyAccumulator returns an empty accumulator for r.
func NewDailyAccumulator(r Reducer) *DailyAccumulator {
	return &DailyAccumulator{reducer: r, days: make(map[time.Time]*dayState)}
}

// Add folds v into the day containing t.
func (a *DailyAccumulator) Add(t time.Time, v float64) {
	if !isFinite(v) {
		return
	}
	date := DateOf(t)
	st, ok := a.days[date]
	if !ok {
		st = &dayState{max: v}
		a.days[date] = st
	}
	st.sum += v
	if v > st.max {
		st.max = v
	}
	st.n++
}

// Len is the number of distinct dates seen.
func (a *DailyAccumulator) Len() int { return len(a.days) }

// Values returns the reduced series sorted by date ascending.
func (a *DailyAccumulator) Values() []DailyValue {
	out := make([]DailyValue, 0, len(a.days))
	for date, st := range a.days {
		dv := DailyValue{Date: date, Samples: st.n}
		switch a.reducer {
		case ReduceMax:
			dv.Value = st.max
		case ReduceMean:
			dv.Value = st.sum / float64(st.n)
		case ReduceSum:
			dv.Value = st.sum
		case ReduceCount:
			dv.Value = float64(st.n)
		}
		out = append(out, dv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// AggregateDaily groups observations by the date of their start.
func AggregateDaily(obs []Observation, r Reducer) []DailyValue {
	acc := NewDailyAccumulator(r)
	for _, o := range obs {
		acc.Add(o.Start, o.Value)
	}
	return acc.Values()
}

// JoinedRow is one date of an outer join. Values[i] is nil when series i has
// no value on Date.
type JoinedRow struct {
	Date   time.Time  `json:"date"`
	Values []*float64 `json:"values"`
}

// OuterJoin merges daily series on date. Every date present in any series
// appears exactly once, ascending.
func OuterJoin(series ...[]DailyValue) []JoinedRow {
	index := make(map[time.Time]int)
	var rows []JoinedRow
	for i, s := range series {
		for _, dv := range s {
			pos, ok := index[dv.Date]
			if !ok {
				pos = len(rows)
				index[dv.Date] = pos
				rows = append(rows, JoinedRow{Date: dv.Date, Values: make([]*float64, len(series))})
			}
			v := dv.Value
			rows[pos].Values[i] = &v
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// WeekKey identifies an ISO-8601 week. Weeks start on Monday and the first
// week of a year contains its first Thursday.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) WeekKey {
	y, w := t.ISOWeek()
	return WeekKey{Year: y, Week: w}
}

// Before orders weeks chronologically.
func (k WeekKey) Before(o WeekKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Week < o.Week
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// Monday is the first day of the week.
func (k WeekKey) Monday() time.Time {
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(k.Week-1)*7)
}

// WorkoutEntry is the per-workout input of the weekly rollup.
type WorkoutEntry struct {
	Date        time.Time `json:"date"`
	DistanceKm  float64   `json:"distance_km"`
	DurationMin float64   `json:"duration_min"`
}

// WeeklyWorkoutSummary is the rollup of the workouts of one ISO week.
type WeeklyWorkoutSummary struct {
	Week            WeekKey   `json:"week"`
	DistanceKm      float64   `json:"distance_km"`
	DurationMin     float64   `json:"duration_min"`
	Hours           float64   `json:"hours"`
	Workouts        int       `json:"workouts"`
	FirstDate       time.Time `json:"first_date"`
	LastDate        time.Time `json:"last_date"`
	AvgPaceMinPerKm *float64  `json:"avg_pace_min_per_km,omitempty"`
}

// AggregateWeeklyWorkouts groups workouts by ISO week, newest week first.
// Average pace is only set when the week has positive distance.
func AggregateWeeklyWorkouts(entries []WorkoutEntry) []WeeklyWorkoutSummary {
	byWeek := make(map[WeekKey]*WeeklyWorkoutSummary)
	for _, e := range entries {
		date := DateOf(e.Date)
		key := WeekOf(date)
		s, ok := byWeek[key]
		if !ok {
			s = &WeeklyWorkoutSummary{Week: key, FirstDate: date, LastDate: date}
			byWeek[key] = s
		}
		s.DistanceKm += e.DistanceKm
		s.DurationMin += e.DurationMin
		s.Workouts++
		if date.Before(s.FirstDate) {
			s.FirstDate = date
		}
		if date.After(s.LastDate) {
			s.LastDate = date
		}
	}

	out := make([]WeeklyWorkoutSummary, 0, len(byWeek))
	for _, s := range byWeek {
		s.Hours = s.DurationMin / 60.0
		if s.DistanceKm > 0 {
			pace := s.DurationMin / s.DistanceKm
			s.AvgPaceMinPerKm = &pace
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Week.Before(out[i].Week)
	})
	return out
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// MonthGroup holds the daily values of one month.
type MonthGroup struct {
	Month MonthKey     `json:"month"`
	Days  []DailyValue `json:"days"`
}

// GroupByMonth splits a date-sorted daily series into calendar months,
// oldest first.
func GroupByMonth(daily []DailyValue) []MonthGroup {
	var groups []MonthGroup
	for _, dv := range daily {
		key := MonthKey{Year: dv.Date.Year(), Month: dv.Date.Month()}
		if len(groups) == 0 || groups[len(groups)-1].Month != key {
			groups = append(groups, MonthGroup{Month: key})
		}
		last := &groups[len(groups)-1]
		last.Days = append(last.Days, dv)
	}
	return groups
}

package healthxl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

// Statistic is a parsed WorkoutStatistics entry.
type Statistic struct {
	Sum  *float64 `json:"sum,omitempty"`
	Unit string   `json:"unit,omitempty"`
}

// Workout is a parsed workout with its statistics and metadata.
type Workout struct {
	ActivityType      string               `json:"activity_type"`
	Start             time.Time            `json:"start"`
	End               time.Time            `json:"end"`
	DurationMinutes   float64              `json:"duration_min"`
	TotalDistance     *float64             `json:"total_distance,omitempty"`
	TotalDistanceUnit string               `json:"total_distance_unit,omitempty"`
	Statistics        map[string]Statistic `json:"statistics,omitempty"`
	Metadata          map[string]string    `json:"metadata,omitempty"`
	Source            string               `json:"source,omitempty"`
}

// ParseWorkout converts the raw attributes of a workout element. Start and
// end dates are required; a missing duration falls back to end minus start.
func ParseWorkout(raw *healthexport.Workout) (Workout, error) {
	start, err := ParseTimestamp(raw.StartDate)
	if err != nil {
		return Workout{}, fmt.Errorf("%w: workout startDate: %v", ErrMalformedRecord, err)
	}
	end, err := ParseTimestamp(raw.EndDate)
	if err != nil {
		return Workout{}, fmt.Errorf("%w: workout endDate: %v", ErrMalformedRecord, err)
	}

	w := Workout{
		ActivityType:      raw.ActivityType,
		Start:             start,
		End:               end,
		TotalDistanceUnit: raw.TotalDistanceUnit,
		Statistics:        make(map[string]Statistic, len(raw.Statistics)),
		Metadata:          make(map[string]string, len(raw.Metadata)),
		Source:            SourceLabel(raw.SourceName, raw.Device),
	}

	if strings.TrimSpace(raw.Duration) == "" {
		w.DurationMinutes = end.Sub(start).Minutes()
	} else {
		d, err := parseNumber(raw.Duration)
		if err != nil {
			return Workout{}, fmt.Errorf("%w: workout duration: %v", ErrMalformedRecord, err)
		}
		w.DurationMinutes = DurationToMinutes(d, raw.DurationUnit)
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(raw.TotalDistance), 64); err == nil && isFinite(v) {
		w.TotalDistance = &v
	}

	for _, s := range raw.Statistics {
		if _, seen := w.Statistics[s.Type]; seen {
			continue
		}
		stat := Statistic{Unit: s.Unit}
		if v, err := parseNumber(s.Sum); err == nil {
			stat.Sum = &v
		}
		w.Statistics[s.Type] = stat
	}
	for _, m := range raw.Metadata {
		w.Metadata[m.Key] = m.Value
	}
	return w, nil
}

// ElapsedMinutes is wall-clock time from start to end.
func (w Workout) ElapsedMinutes() float64 {
	return w.End.Sub(w.Start).Minutes()
}

// DistanceKm uses the totalDistance attribute when present and otherwise
// the first distance statistic. It returns 0 when neither exists.
func (w Workout) DistanceKm() float64 {
	if w.TotalDistance != nil {
		return DistanceToKm(*w.TotalDistance, w.TotalDistanceUnit)
	}
	for _, typ := range healthexport.DistanceTypes {
		if s, ok := w.Statistics[typ]; ok && s.Sum != nil {
			return DistanceToKm(*s.Sum, s.Unit)
		}
	}
	return 0
}

// ActiveKcal is the active energy statistic, 0 when absent.
func (w Workout) ActiveKcal() float64 {
	return w.energyKcal(healthexport.TypeActiveEnergyBurned)
}

// BasalKcal is the basal energy statistic, 0 when absent.
func (w Workout) BasalKcal() float64 {
	return w.energyKcal(healthexport.TypeBasalEnergyBurned)
}

func (w Workout) energyKcal(typ string) float64 {
	s, ok := w.Statistics[typ]
	if !ok || s.Sum == nil {
		return 0
	}
	if s.Unit == "kJ" {
		return *s.Sum / 4.184
	}
	return *s.Sum
}

// ElevationGainM reads the ascended elevation metadata.
func (w Workout) ElevationGainM() (float64, bool) {
	raw, ok := w.Metadata[healthexport.MetadataElevationAscended]
	if !ok {
		return 0, false
	}
	return ElevationToMeters(raw)
}

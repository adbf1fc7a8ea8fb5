package healthxl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

// TimestampLayout is the wall-clock part of an export timestamp. The trailing
// UTC offset is not interpreted.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultSourceMarker selects samples recorded by the watch.
const DefaultSourceMarker = "Watch"

var nbspToSpace = runes.Map(func(r rune) rune {
	if r == '\u00a0' {
		return ' '
	}
	return r
})

// Observation is one accepted record, normalised to numbers and times.
type Observation struct {
	Type   string    `json:"type"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Value  float64   `json:"value"`
	Unit   string    `json:"unit,omitempty"`
	Source string    `json:"source,omitempty"`
}

// Date is the calendar date of the observation's start.
func (o Observation) Date() time.Time { return DateOf(o.Start) }

// ParseTimestamp reads "2025-11-30 09:48:55 +0100" as naive local time.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) < len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q too short", s)
	}
	return time.Parse(TimestampLayout, s[:len(TimestampLayout)])
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SourceLabel joins source name and device with non-breaking spaces mapped
// to regular spaces.
func SourceLabel(sourceName, device string) string {
	label, _, err := transform.String(nbspToSpace, sourceName+" "+device)
	if err != nil {
		return strings.ReplaceAll(sourceName+" "+device, "\u00a0", " ")
	}
	return label
}

// Filter decides which records and workouts a report uses. An empty Types
// set accepts every type, a zero Cutoff accepts every date and an empty
// SourceMarker accepts every source.
type Filter struct {
	Types        map[string]struct{}
	Cutoff       time.Time
	SourceMarker string
}

// NewFilter builds a Filter accepting the given record or activity types.
func NewFilter(types ...string) Filter {
	f := Filter{Types: make(map[string]struct{}, len(types))}
	for _, t := range types {
		f.Types[t] = struct{}{}
	}
	return f
}

// Since returns a copy of f that drops anything dated before cutoff.
func (f Filter) Since(cutoff time.Time) Filter {
	f.Cutoff = cutoff
	return f
}

// From returns a copy of f that only keeps sources containing marker.
func (f Filter) From(marker string) Filter {
	f.SourceMarker = marker
	return f
}

// HasType reports whether typ is selected.
func (f Filter) HasType(typ string) bool {
	if len(f.Types) == 0 {
		return true
	}
	_, ok := f.Types[typ]
	return ok
}

// MatchesSource applies the source marker.
func (f Filter) MatchesSource(sourceName, device string) bool {
	if f.SourceMarker == "" {
		return true
	}
	return strings.Contains(SourceLabel(sourceName, device), f.SourceMarker)
}

// InRange reports whether t falls on or after the cutoff date.
func (f Filter) InRange(t time.Time) bool {
	if f.Cutoff.IsZero() {
		return true
	}
	return !DateOf(t).Before(DateOf(f.Cutoff))
}

// Record classifies one record. It returns ok=false for records the filter
// rejects and an ErrMalformedRecord error for selected records that cannot
// be parsed.
func (f Filter) Record(rec *healthexport.Record) (Observation, bool, error) {
	if rec == nil || !f.HasType(rec.Type) {
		return Observation{}, false, nil
	}
	if !f.MatchesSource(rec.SourceName, rec.Device) {
		return Observation{}, false, nil
	}
	start, err := ParseTimestamp(rec.StartDate)
	if err != nil {
		return Observation{}, false, fmt.Errorf("%w: %s startDate: %v", ErrMalformedRecord, rec.Type, err)
	}
	if !f.InRange(start) {
		return Observation{}, false, nil
	}
	end := start
	if rec.EndDate != "" {
		end, err = ParseTimestamp(rec.EndDate)
		if err != nil {
			return Observation{}, false, fmt.Errorf("%w: %s endDate: %v", ErrMalformedRecord, rec.Type, err)
		}
	}
	value, err := parseNumber(rec.Value)
	if err != nil {
		return Observation{}, false, fmt.Errorf("%w: %s value: %v", ErrMalformedRecord, rec.Type, err)
	}
	return Observation{
		Type:   rec.Type,
		Start:  start,
		End:    end,
		Value:  value,
		Unit:   rec.Unit,
		Source: SourceLabel(rec.SourceName, rec.Device),
	}, true, nil
}

// Workout classifies one workout against the activity types, cutoff and
// source marker.
func (f Filter) Workout(raw *healthexport.Workout) (Workout, bool, error) {
	if raw == nil || !f.HasType(raw.ActivityType) {
		return Workout{}, false, nil
	}
	if !f.MatchesSource(raw.SourceName, raw.Device) {
		return Workout{}, false, nil
	}
	w, err := ParseWorkout(raw)
	if err != nil {
		return Workout{}, false, err
	}
	if !f.InRange(w.Start) {
		return Workout{}, false, nil
	}
	return w, true, nil
}

func parseNumber(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("missing")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

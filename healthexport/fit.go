package healthexport

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/tormoder/fit"
)

// FITSample is one timestamped value from a FIT record message.
type FITSample struct {
	Time  time.Time
	Value float64
}

// FITActivity is the subset of a FIT activity file that maps onto a workout:
// session totals plus heart-rate and cumulative distance series.
type FITActivity struct {
	Sport          string
	Start          time.Time
	End            time.Time
	TimerSeconds   float64
	DistanceMeters float64
	Calories       float64
	AscentMeters   float64
	HeartRate      []FITSample
	Distance       []FITSample // cumulative metres
}

// ReadFIT decodes the activity FIT file at path.
func ReadFIT(path string) (*FITActivity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	defer f.Close()
	return DecodeFIT(f)
}

// DecodeFIT decodes an activity FIT stream.
func DecodeFIT(r io.Reader) (*FITActivity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	out := &FITActivity{}
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		if rec.HeartRate != math.MaxUint8 && rec.HeartRate > 0 {
			out.HeartRate = append(out.HeartRate, FITSample{Time: ts, Value: float64(rec.HeartRate)})
		}
		if d := safePositive(rec.GetDistanceScaled()); d > 0 {
			out.Distance = append(out.Distance, FITSample{Time: ts, Value: d})
		}
	}
	sortSamples(out.HeartRate)
	sortSamples(out.Distance)

	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		session := activity.Sessions[0]
		out.Sport = fmt.Sprint(session.Sport)
		out.Start = validTimeOrZero(session.StartTime)
		out.End = validTimeOrZero(session.Timestamp)
		out.TimerSeconds = safePositive(session.GetTotalTimerTimeScaled())
		out.DistanceMeters = safePositive(session.GetTotalDistanceScaled())
		if session.TotalCalories != math.MaxUint16 {
			out.Calories = float64(session.TotalCalories)
		}
		if session.TotalAscent != math.MaxUint16 {
			out.AscentMeters = float64(session.TotalAscent)
		}
	}

	first, last := seriesBounds(out.HeartRate, out.Distance)
	if out.Start.IsZero() {
		out.Start = first
	}
	if out.End.IsZero() {
		out.End = last
	}
	if out.TimerSeconds == 0 && out.End.After(out.Start) {
		out.TimerSeconds = out.End.Sub(out.Start).Seconds()
	}
	if out.DistanceMeters == 0 && len(out.Distance) > 0 {
		out.DistanceMeters = out.Distance[len(out.Distance)-1].Value
	}
	if out.Start.IsZero() {
		return nil, fmt.Errorf("activity file has no timestamps")
	}
	return out, nil
}

func sortSamples(samples []FITSample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
}

func seriesBounds(series ...[]FITSample) (time.Time, time.Time) {
	var first, last time.Time
	for _, s := range series {
		if len(s) == 0 {
			continue
		}
		if first.IsZero() || s[0].Time.Before(first) {
			first = s[0].Time
		}
		if s[len(s)-1].Time.After(last) {
			last = s[len(s)-1].Time
		}
	}
	return first, last
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func safePositive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}

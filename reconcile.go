package healthxl

import (
	"math"
	"sort"
	"time"
)

// DistanceEncoding says how a workout's distance samples were recorded.
type DistanceEncoding string

const (
	EncodingNone        DistanceEncoding = ""
	EncodingIncremental DistanceEncoding = "incremental"
	EncodingCumulative  DistanceEncoding = "cumulative"
)

// Sample is one point of a time series.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Window is the half-open interval a workout occupies.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether [start, end] intersects the window. Samples that
// end exactly at the window start or begin exactly at its end do not count.
func (w Window) Overlaps(start, end time.Time) bool {
	return end.After(w.Start) && start.Before(w.End)
}

// Reconciled holds the heart-rate and distance series of one workout after
// window filtering, ordering and distance decoding.
type Reconciled struct {
	HeartRate   []Sample         `json:"heart_rate"`
	Distance    []Sample         `json:"distance"` // cumulative km
	Encoding    DistanceEncoding `json:"encoding"`
	RawSumKm    float64          `json:"raw_sum_km"`
	RawMaxKm    float64          `json:"raw_max_km"`
	DroppedHR   int              `json:"dropped_hr"`
	DroppedDist int              `json:"dropped_distance"`
}

// DetectEncoding picks the reading of values whose total lands closer to
// totalKm. Incremental wins ties.
func DetectEncoding(values []float64, totalKm float64) DistanceEncoding {
	if len(values) == 0 {
		return EncodingNone
	}
	sum, max := 0.0, values[0]
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
	}
	if math.Abs(sum-totalKm) <= math.Abs(max-totalKm) {
		return EncodingIncremental
	}
	return EncodingCumulative
}

// Reconcile filters samples to the workout window, keys heart rate by
// sample start and distance by sample end, orders both series and turns the
// distance series into cumulative kilometres. Distance observations are
// converted with DistanceToKm.
//
// It returns ErrNoHeartRateData when no heart-rate sample overlaps the
// window. A missing distance series is not an error; the result then has
// an empty Distance slice and EncodingNone.
func Reconcile(window Window, totalKm float64, hr, dist []Observation) (*Reconciled, error) {
	out := &Reconciled{}
	for _, o := range hr {
		if !window.Overlaps(o.Start, o.End) {
			out.DroppedHR++
			continue
		}
		out.HeartRate = append(out.HeartRate, Sample{Time: o.Start, Value: o.Value})
	}
	if len(out.HeartRate) == 0 {
		return nil, ErrNoHeartRateData
	}

	raw := make([]Sample, 0, len(dist))
	for _, o := range dist {
		if !window.Overlaps(o.Start, o.End) {
			out.DroppedDist++
			continue
		}
		raw = append(raw, Sample{Time: o.End, Value: DistanceToKm(o.Value, o.Unit)})
	}

	sortSamples(out.HeartRate)
	sortSamples(raw)
	if len(raw) == 0 {
		return out, nil
	}

	values := make([]float64, len(raw))
	for i, s := range raw {
		values[i] = s.Value
		out.RawSumKm += s.Value
		if i == 0 || s.Value > out.RawMaxKm {
			out.RawMaxKm = s.Value
		}
	}
	out.Encoding = DetectEncoding(values, totalKm)
	if out.Encoding == EncodingIncremental {
		cum := 0.0
		for i := range raw {
			cum += raw[i].Value
			raw[i].Value = cum
		}
	}
	out.Distance = raw
	return out, nil
}

func sortSamples(s []Sample) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time.Before(s[j].Time)
	})
}

package healthxl

import (
	"math"
	"time"
)

// SplitToleranceKm absorbs the rounding in a workout's reported distance:
// 12.03 km yields 12 splits, 12.07 km yields 13.
const SplitToleranceKm = 0.05

// Split is the stretch of a workout between two distance marks.
type Split struct {
	Index         int           `json:"index"`
	TargetKm      float64       `json:"target_km"`
	Arrival       time.Time     `json:"arrival"`
	Duration      time.Duration `json:"duration"`
	PaceSecPerKm  float64       `json:"pace_sec_per_km"`
	AvgHeartRate  int           `json:"avg_heart_rate_bpm"`
	Partial       bool          `json:"partial"`
	SegmentLength float64       `json:"segment_km"`
}

// SplitTargets returns the distance marks for totalKm: every whole
// kilometre up to floor(totalKm+tolerance) and totalKm itself when the
// remainder exceeds the tolerance.
func SplitTargets(totalKm float64) []float64 {
	if !isFinite(totalKm) || totalKm <= 0 {
		return nil
	}
	full := int(totalKm + SplitToleranceKm)
	targets := make([]float64, 0, full+1)
	for k := 1; k <= full; k++ {
		targets = append(targets, float64(k))
	}
	if totalKm-float64(full) > SplitToleranceKm {
		targets = append(targets, totalKm)
	}
	return targets
}

// ComputeSplits interpolates the arrival time at each distance mark from a
// sorted cumulative distance series. The scan starts at the workout start
// with zero distance and stops early once the series is exhausted. Each
// split's average heart rate covers samples in [split start, arrival],
// rounded half to even; it is 0 when no sample falls in the split.
func ComputeSplits(hr, dist []Sample, start time.Time, totalKm float64) []Split {
	if len(dist) == 0 {
		return nil
	}
	targets := SplitTargets(totalKm)
	if len(targets) == 0 {
		return nil
	}

	splits := make([]Split, 0, len(targets))
	prevT, prevDist := start, 0.0
	splitStart := start
	prevTarget := 0.0
	idx, n := 0, len(dist)

	for i, target := range targets {
		for idx < n && dist[idx].Value < target {
			prevT = dist[idx].Time
			prevDist = dist[idx].Value
			idx++
		}
		if idx == n {
			break
		}
		curT, curDist := dist[idx].Time, dist[idx].Value

		arrival := curT
		if curDist != prevDist {
			frac := (target - prevDist) / (curDist - prevDist)
			gap := curT.Sub(prevT).Seconds()
			arrival = prevT.Add(time.Duration(gap * frac * float64(time.Second)))
		}

		segment := target - prevTarget
		sp := Split{
			Index:         i + 1,
			TargetKm:      target,
			Arrival:       arrival,
			Duration:      arrival.Sub(splitStart),
			AvgHeartRate:  averageHeartRate(hr, splitStart, arrival),
			Partial:       target != math.Trunc(target),
			SegmentLength: segment,
		}
		if segment > 0 {
			sp.PaceSecPerKm = sp.Duration.Seconds() / segment
		}
		splits = append(splits, sp)
		splitStart = arrival
		prevTarget = target
	}
	return splits
}

func averageHeartRate(hr []Sample, from, to time.Time) int {
	total, count := 0.0, 0
	for _, s := range hr {
		if s.Time.Before(from) || s.Time.After(to) {
			continue
		}
		total += s.Value
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.RoundToEven(total / float64(count)))
}

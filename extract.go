package healthxl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

// DefaultProgressEvery is how many events pass between progress log lines.
const DefaultProgressEvery = 100000

// ScanStats counts what one pass over the document saw.
type ScanStats struct {
	Events           int `json:"events"`
	RecordsAccepted  int `json:"records_accepted"`
	WorkoutsAccepted int `json:"workouts_accepted"`
	Malformed        int `json:"malformed"`
}

// Scanner runs one streaming pass and hands accepted observations and
// workouts to callbacks. A nil filter disables that element kind.
type Scanner struct {
	Records       *Filter
	Workouts      *Filter
	OnRecord      func(Observation)
	OnWorkout     func(Workout)
	Logger        *slog.Logger
	ProgressEvery int
}

// Scan opens path and runs the pass.
func (s Scanner) Scan(path string) (ScanStats, error) {
	r, err := healthexport.Open(path)
	if err != nil {
		return ScanStats{}, err
	}
	defer r.Close()
	return s.ScanReader(r)
}

// ScanReader runs the pass over an already opened reader. Malformed
// elements are logged and skipped; structural XML errors end the pass.
func (s Scanner) ScanReader(r *healthexport.Reader) (ScanStats, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	every := s.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	var stats ScanStats
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Events++
		if stats.Events%every == 0 {
			logProgress(logger, r, stats)
		}

		switch ev.Kind {
		case healthexport.KindRecord:
			if s.Records == nil {
				continue
			}
			obs, ok, err := s.Records.Record(ev.Record)
			if err != nil {
				s.malformed(logger, &stats, ev, err)
				continue
			}
			if !ok {
				continue
			}
			stats.RecordsAccepted++
			if s.OnRecord != nil {
				s.OnRecord(obs)
			}
		case healthexport.KindWorkout:
			if s.Workouts == nil {
				continue
			}
			w, ok, err := s.Workouts.Workout(ev.Workout)
			if err != nil {
				s.malformed(logger, &stats, ev, err)
				continue
			}
			if !ok {
				continue
			}
			stats.WorkoutsAccepted++
			if s.OnWorkout != nil {
				s.OnWorkout(w)
			}
		}
	}
	if stats.Malformed > 0 {
		logger.Warn("skipped malformed elements", "count", stats.Malformed)
	}
	return stats, nil
}

func (s Scanner) malformed(logger *slog.Logger, stats *ScanStats, ev healthexport.Event, err error) {
	if !errors.Is(err, ErrMalformedRecord) {
		err = fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	stats.Malformed++
	logger.Debug("skip element", "kind", ev.Kind.String(), "offset", ev.Offset, "error", err)
}

func logProgress(logger *slog.Logger, r *healthexport.Reader, stats ScanStats) {
	attrs := []any{"events", stats.Events, "accepted", stats.RecordsAccepted + stats.WorkoutsAccepted}
	if size := r.Size(); size > 0 {
		attrs = append(attrs, "progress_pct", float64(r.Offset())/float64(size)*100.0)
	}
	logger.Info("scan progress", attrs...)
}

// CollectObservations returns every record the filter accepts.
func CollectObservations(path string, f Filter, logger *slog.Logger) ([]Observation, ScanStats, error) {
	var out []Observation
	stats, err := Scanner{
		Records:  &f,
		OnRecord: func(o Observation) { out = append(out, o) },
		Logger:   logger,
	}.Scan(path)
	return out, stats, err
}

// FindLatestWorkout returns the accepted workout with the latest start.
func FindLatestWorkout(path string, f Filter, logger *slog.Logger) (Workout, error) {
	var (
		best  Workout
		found bool
	)
	_, err := Scanner{
		Workouts: &f,
		OnWorkout: func(w Workout) {
			if !found || w.Start.After(best.Start) {
				best = w
				found = true
			}
		},
		Logger: logger,
	}.Scan(path)
	if err != nil {
		return Workout{}, err
	}
	if !found {
		return Workout{}, ErrNoMatchingWorkout
	}
	return best, nil
}

// CollectWorkoutSamples gathers heart-rate and distance records from the
// given source that overlap the workout window.
func CollectWorkoutSamples(path string, w Workout, sourceMarker string, logger *slog.Logger) (hr, dist []Observation, err error) {
	f := NewFilter(
		healthexport.TypeHeartRate,
		healthexport.TypeDistanceWalkingRunning,
		healthexport.TypeDistanceWalking,
	).From(sourceMarker)
	window := Window{Start: w.Start, End: w.End}

	_, err = Scanner{
		Records: &f,
		OnRecord: func(o Observation) {
			if !window.Overlaps(o.Start, o.End) {
				return
			}
			if o.Type == healthexport.TypeHeartRate {
				hr = append(hr, o)
				return
			}
			dist = append(dist, o)
		},
		Logger: logger,
	}.Scan(path)
	return hr, dist, err
}

package healthxl

import (
	"errors"

	"github.com/GRIGOR2T/apple-health-to-excel/healthexport"
)

var (
	// ErrSourceNotFound means the export document could not be opened.
	ErrSourceNotFound = healthexport.ErrSourceNotFound

	// ErrMalformedRecord marks a single unusable element. Callers skip it.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNoMatchingWorkout means no workout satisfied the filter.
	ErrNoMatchingWorkout = errors.New("no matching workout")

	// ErrNoHeartRateData means no heart-rate sample overlaps the workout window.
	ErrNoHeartRateData = errors.New("no heart-rate data in workout window")
)

package healthxl

import (
	"strconv"
	"strings"
)

const kmPerMile = 1.60934

// DistanceToKm converts a distance value to kilometres. Unknown units are
// returned unchanged.
func DistanceToKm(value float64, unit string) float64 {
	switch unit {
	case "m", "meter", "meters":
		return value / 1000.0
	case "km", "kilometer", "kilometers", "":
		return value
	case "mi", "mile", "miles":
		return value * kmPerMile
	default:
		return value
	}
}

// KmToDistance is the inverse of DistanceToKm.
func KmToDistance(km float64, unit string) float64 {
	switch unit {
	case "m", "meter", "meters":
		return km * 1000.0
	case "mi", "mile", "miles":
		return km / kmPerMile
	default:
		return km
	}
}

// DurationToMinutes converts a duration value to minutes. Unknown units are
// returned unchanged.
func DurationToMinutes(value float64, unit string) float64 {
	switch unit {
	case "min", "minute", "minutes", "":
		return value
	case "hr", "h", "hour", "hours":
		return value * 60.0
	case "s", "sec", "second", "seconds":
		return value / 60.0
	default:
		return value
	}
}

// MinutesToDuration is the inverse of DurationToMinutes.
func MinutesToDuration(minutes float64, unit string) float64 {
	switch unit {
	case "hr", "h", "hour", "hours":
		return minutes / 60.0
	case "s", "sec", "second", "seconds":
		return minutes * 60.0
	default:
		return minutes
	}
}

// ElevationToMeters parses an elevation metadata value such as "1234 cm".
// A bare number is read as centimetres.
func ElevationToMeters(raw string) (float64, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	unit := "cm"
	if len(fields) > 1 {
		unit = fields[1]
	}
	switch unit {
	case "m":
		return v, true
	case "km":
		return v * 1000.0, true
	case "ft":
		return v * 0.3048, true
	default:
		return v / 100.0, true
	}
}

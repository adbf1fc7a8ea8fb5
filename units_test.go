package healthxl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceToKm(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		want  float64
	}{
		{1500, "m", 1.5},
		{1500, "meters", 1.5},
		{2.5, "km", 2.5},
		{2.5, "", 2.5},
		{1, "mi", 1.60934},
		{3, "furlong", 3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DistanceToKm(tt.value, tt.unit), 1e-9, "unit %q", tt.unit)
	}
}

func TestDurationToMinutes(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		want  float64
	}{
		{90, "sec", 1.5},
		{90, "s", 1.5},
		{1.5, "hr", 90},
		{1.5, "hours", 90},
		{42, "min", 42},
		{42, "", 42},
		{7, "fortnight", 7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DurationToMinutes(tt.value, tt.unit), 1e-9, "unit %q", tt.unit)
	}
}

func TestUnitRoundTrips(t *testing.T) {
	for _, unit := range []string{"m", "meter", "km", "", "mi", "miles", "unknown"} {
		for _, v := range []float64{0, 0.37, 1, 12.07, 4200} {
			assert.InDelta(t, v, KmToDistance(DistanceToKm(v, unit), unit), 1e-9, "distance unit %q", unit)
		}
	}
	for _, unit := range []string{"s", "sec", "min", "", "hr", "hours", "unknown"} {
		for _, v := range []float64{0, 0.5, 42.5, 3600} {
			assert.InDelta(t, v, MinutesToDuration(DurationToMinutes(v, unit), unit), 1e-9, "duration unit %q", unit)
		}
	}
}

func TestElevationToMeters(t *testing.T) {
	v, ok := ElevationToMeters("1234 cm")
	assert.True(t, ok)
	assert.InDelta(t, 12.34, v, 1e-9)

	v, ok = ElevationToMeters("880")
	assert.True(t, ok)
	assert.InDelta(t, 8.8, v, 1e-9)

	v, ok = ElevationToMeters("12 m")
	assert.True(t, ok)
	assert.InDelta(t, 12, v, 1e-9)

	_, ok = ElevationToMeters("")
	assert.False(t, ok)
	_, ok = ElevationToMeters("high cm")
	assert.False(t, ok)
}

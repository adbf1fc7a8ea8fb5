package healthxl

import (
	"fmt"
	"math"
)

// DefaultZoneBounds are the lower heart-rate bounds (bpm) of zones 1 to 5.
var DefaultZoneBounds = []float64{0, 115, 135, 150, 170}

// Zone is one heart-rate band. Lower is inclusive. The band ends where the
// next band starts; the last band is unbounded.
type Zone struct {
	Name  string   `json:"zone"`
	Lower float64  `json:"min_bpm"`
	Upper *float64 `json:"max_bpm,omitempty"` // exclusive
}

// RangeLabel renders the band as "<115 BPM", "115-134 BPM" or "170+ BPM".
func (z Zone) RangeLabel() string {
	switch {
	case z.Upper == nil:
		return fmt.Sprintf("%.0f+ BPM", z.Lower)
	case z.Lower <= 0:
		return fmt.Sprintf("<%.0f BPM", *z.Upper)
	default:
		return fmt.Sprintf("%.0f-%.0f BPM", z.Lower, *z.Upper-1)
	}
}

// ZoneTable is an ordered, contiguous set of heart-rate bands.
type ZoneTable struct {
	zones []Zone
}

// NewZoneTable builds "Zone 1".."Zone N" from strictly ascending lower bounds.
func NewZoneTable(lowers []float64) (ZoneTable, error) {
	if len(lowers) == 0 {
		return ZoneTable{}, fmt.Errorf("zone table needs at least one bound")
	}
	zones := make([]Zone, len(lowers))
	for i, lo := range lowers {
		if !isFinite(lo) {
			return ZoneTable{}, fmt.Errorf("zone %d lower bound is not finite", i+1)
		}
		if i > 0 && lo <= lowers[i-1] {
			return ZoneTable{}, fmt.Errorf("zone bounds must be strictly ascending: %v", lowers)
		}
		zones[i] = Zone{Name: fmt.Sprintf("Zone %d", i+1), Lower: lo}
		if i+1 < len(lowers) {
			upper := lowers[i+1]
			zones[i].Upper = &upper
		}
	}
	return ZoneTable{zones: zones}, nil
}

// DefaultZoneTable is the five-zone table built from DefaultZoneBounds.
func DefaultZoneTable() ZoneTable {
	zt, err := NewZoneTable(DefaultZoneBounds)
	if err != nil {
		panic(err)
	}
	return zt
}

// Zones returns the bands in ascending order.
func (zt ZoneTable) Zones() []Zone {
	return append([]Zone(nil), zt.zones...)
}

// Classify returns the index of the band containing hr, or -1 when hr is
// below the first band or not a number.
func (zt ZoneTable) Classify(hr float64) int {
	if math.IsNaN(hr) {
		return -1
	}
	idx := -1
	for i, z := range zt.zones {
		if hr < z.Lower {
			break
		}
		idx = i
	}
	return idx
}

// ZoneDuration is the time spent in one band.
type ZoneDuration struct {
	Zone
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// Dwell attributes the gap between each pair of consecutive samples to the
// band of the earlier sample. The last sample contributes nothing, so the
// total equals last minus first sample time when every sample is in a band.
// Samples must be sorted by time.
func (zt ZoneTable) Dwell(hr []Sample) []ZoneDuration {
	out := make([]ZoneDuration, len(zt.zones))
	for i, z := range zt.zones {
		out[i].Zone = z
	}
	total := 0.0
	for i := 0; i+1 < len(hr); i++ {
		idx := zt.Classify(hr[i].Value)
		if idx < 0 {
			continue
		}
		gap := hr[i+1].Time.Sub(hr[i].Time).Seconds()
		if gap <= 0 {
			continue
		}
		out[idx].Seconds += gap
		total += gap
	}
	if total > 0 {
		for i := range out {
			out[i].Percentage = out[i].Seconds / total * 100.0
		}
	}
	return out
}

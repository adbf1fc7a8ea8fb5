package healthxl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steadyDistance returns n cumulative samples, 0.25 km every 30 seconds.
func steadyDistance(start time.Time, n int) []Sample {
	out := make([]Sample, n)
	for k := 1; k <= n; k++ {
		out[k-1] = Sample{Time: start.Add(time.Duration(30*k) * time.Second), Value: 0.25 * float64(k)}
	}
	return out
}

func TestSplitTargets(t *testing.T) {
	assert.Len(t, SplitTargets(12.03), 12)
	targets := SplitTargets(12.07)
	require.Len(t, targets, 13)
	assert.Equal(t, 12.07, targets[12])
	assert.Equal(t, []float64{1, 2}, SplitTargets(1.96))
	assert.Equal(t, []float64{0.5}, SplitTargets(0.5))
	assert.Empty(t, SplitTargets(0.04))
	assert.Empty(t, SplitTargets(0))
}

func TestComputeSplitsCounts(t *testing.T) {
	start := at(9, 0)
	dist := steadyDistance(start, 49) // reaches 12.25 km

	assert.Len(t, ComputeSplits(nil, dist, start, 12.03), 12)

	splits := ComputeSplits(nil, dist, start, 12.07)
	require.Len(t, splits, 13)
	last := splits[12]
	assert.True(t, last.Partial)
	assert.Equal(t, 13, last.Index)
	assert.InDelta(t, 8.4, last.Duration.Seconds(), 1e-3)
	assert.InDelta(t, 0.07, last.SegmentLength, 1e-9)
	assert.InDelta(t, 120, last.PaceSecPerKm, 1e-2)
}

func TestComputeSplitsInterpolatesArrival(t *testing.T) {
	start := at(9, 0)
	dist := steadyDistance(start, 49)

	splits := ComputeSplits(nil, dist, start, 12.07)
	for i, sp := range splits[:12] {
		assert.False(t, sp.Partial)
		assert.Equal(t, start.Add(time.Duration(120*(i+1))*time.Second), sp.Arrival, "split %d", i+1)
		assert.Equal(t, 2*time.Minute, sp.Duration)
		assert.InDelta(t, 120, sp.PaceSecPerKm, 1e-9)
	}
	for i := 1; i < len(splits); i++ {
		assert.True(t, splits[i].Arrival.After(splits[i-1].Arrival))
	}

	uneven := []Sample{
		{Time: start.Add(4 * time.Minute), Value: 0.5},
		{Time: start.Add(10 * time.Minute), Value: 1.5},
	}
	got := ComputeSplits(nil, uneven, start, 1.5)
	require.Len(t, got, 2)
	assert.Equal(t, start.Add(7*time.Minute), got[0].Arrival)
	assert.Equal(t, start.Add(10*time.Minute), got[1].Arrival)
	assert.Equal(t, 3*time.Minute, got[1].Duration)
}

func TestComputeSplitsStopsWhenSeriesEnds(t *testing.T) {
	start := at(9, 0)
	dist := steadyDistance(start, 14) // reaches 3.5 km

	splits := ComputeSplits(nil, dist, start, 5)
	assert.Len(t, splits, 3)
	assert.Empty(t, ComputeSplits(nil, nil, start, 5))
}

func TestComputeSplitsAverageHeartRate(t *testing.T) {
	start := at(9, 0)
	dist := []Sample{
		{Time: start.Add(5 * time.Minute), Value: 1},
		{Time: start.Add(10 * time.Minute), Value: 2},
		{Time: start.Add(15 * time.Minute), Value: 3},
	}
	hr := []Sample{
		{Time: start, Value: 100},
		{Time: start.Add(5 * time.Minute), Value: 101}, // on the boundary, counts for both splits
		{Time: start.Add(7 * time.Minute), Value: 102},
	}

	splits := ComputeSplits(hr, dist, start, 3)
	require.Len(t, splits, 3)
	assert.Equal(t, 100, splits[0].AvgHeartRate) // 100.5 rounds to even
	assert.Equal(t, 102, splits[1].AvgHeartRate) // 101.5 rounds to even
	assert.Equal(t, 0, splits[2].AvgHeartRate)
}

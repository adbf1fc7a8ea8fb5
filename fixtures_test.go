package healthxl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	watchSource = "Alex’s Apple&#160;Watch"
	phoneSource = "Alex’s iPhone"
)

type exportBuilder struct {
	body strings.Builder
}

func fmtTS(t time.Time) string {
	return t.Format(TimestampLayout) + " +0100"
}

func (b *exportBuilder) record(typ, source, unit string, start, end time.Time, value string) *exportBuilder {
	fmt.Fprintf(&b.body,
		` <Record type="%s" sourceName="%s" unit="%s" startDate="%s" endDate="%s" value="%s"/>`+"\n",
		typ, source, unit, fmtTS(start), fmtTS(end), value)
	return b
}

func (b *exportBuilder) raw(s string) *exportBuilder {
	b.body.WriteString(s)
	b.body.WriteByte('\n')
	return b
}

func (b *exportBuilder) write(t *testing.T) string {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE HealthData [
<!ELEMENT HealthData (ExportDate,Me,(Record|Correlation|Workout)*)>
]>
<HealthData locale="en_US">
 <ExportDate value="2025-12-01 10:00:00 +0100"/>
` + b.body.String() + "</HealthData>\n"
	path := filepath.Join(t.TempDir(), "export.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write export fixture: %v", err)
	}
	return path
}

func walkingWorkoutXML(start, end time.Time, distanceKm float64) string {
	return fmt.Sprintf(` <Workout workoutActivityType="HKWorkoutActivityTypeWalking" duration="%.1f" durationUnit="min" sourceName="%s" startDate="%s" endDate="%s">
  <WorkoutStatistics type="HKQuantityTypeIdentifierDistanceWalkingRunning" sum="%.2f" unit="km"/>
  <WorkoutStatistics type="HKQuantityTypeIdentifierActiveEnergyBurned" sum="150.4" unit="kcal"/>
  <WorkoutStatistics type="HKQuantityTypeIdentifierBasalEnergyBurned" sum="40.2" unit="kcal"/>
  <MetadataEntry key="HKElevationAscended" value="2350 cm"/>
 </Workout>`, end.Sub(start).Minutes(), watchSource, fmtTS(start), fmtTS(end), distanceKm)
}

func at(h, m int) time.Time {
	return time.Date(2025, 11, 30, h, m, 0, 0, time.UTC)
}

// lastWalkExport holds a 30 minute, 2.5 km walk with one heart-rate sample
// per minute at 120 bpm and five incremental 0.5 km distance samples.
func lastWalkExport(t *testing.T) string {
	t.Helper()
	b := &exportBuilder{}
	older := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)
	b.raw(walkingWorkoutXML(older, older.Add(20*time.Minute), 1.5))
	b.raw(walkingWorkoutXML(at(9, 0), at(9, 30), 2.5))
	for m := 0; m <= 30; m++ {
		ts := at(9, m)
		b.record("HKQuantityTypeIdentifierHeartRate", watchSource, "count/min", ts, ts, "120")
	}
	b.record("HKQuantityTypeIdentifierHeartRate", phoneSource, "count/min", at(9, 12), at(9, 12), "180")
	b.record("HKQuantityTypeIdentifierHeartRate", watchSource, "count/min", at(9, 14), at(9, 14), "n/a")
	for k := 0; k < 5; k++ {
		b.record("HKQuantityTypeIdentifierDistanceWalkingRunning", watchSource, "m", at(9, 5*k), at(9, 5*k+5), "500")
	}
	return b.write(t)
}

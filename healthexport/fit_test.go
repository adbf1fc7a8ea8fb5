package healthexport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

func TestDecodeFITBuildsSeries(t *testing.T) {
	start := time.Date(2025, 11, 30, 9, 0, 0, 0, time.UTC)
	data := buildWalkFIT(t, start)

	act, err := DecodeFIT(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeFIT error: %v", err)
	}
	if len(act.HeartRate) != 3 {
		t.Fatalf("expected 3 heart-rate samples, got %d", len(act.HeartRate))
	}
	if len(act.Distance) != 3 {
		t.Fatalf("expected 3 distance samples, got %d", len(act.Distance))
	}
	if !act.Start.Equal(start) {
		t.Fatalf("unexpected start: %v", act.Start)
	}
	if act.DistanceMeters != 1500 {
		t.Fatalf("expected distance fallback to last sample (1500 m), got %v", act.DistanceMeters)
	}
	if act.TimerSeconds != 20*60 {
		t.Fatalf("expected timer fallback to 1200s, got %v", act.TimerSeconds)
	}
	for i := 1; i < len(act.Distance); i++ {
		if act.Distance[i].Time.Before(act.Distance[i-1].Time) {
			t.Fatal("distance samples are not sorted")
		}
	}
}

func TestReadFITMissingFile(t *testing.T) {
	_, err := ReadFIT(filepath.Join(t.TempDir(), "missing.fit"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func buildWalkFIT(t *testing.T, start time.Time) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	samples := []struct {
		offset   time.Duration
		hr       uint8
		distance uint32 // centimetres
	}{
		{20 * time.Minute, 131, 150000},
		{0, 104, 0},
		{10 * time.Minute, 118, 80000},
		{15 * time.Minute, 0, 110000},
	}
	for _, s := range samples {
		record := fit.NewRecordMsg()
		record.Timestamp = start.Add(s.offset)
		if s.hr > 0 {
			record.HeartRate = s.hr
		}
		if s.distance > 0 {
			record.Distance = s.distance
		}
		activity.Records = append(activity.Records, record)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

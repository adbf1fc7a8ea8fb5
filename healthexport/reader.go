package healthexport

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

const readBufferSize = 1 << 20

// Reader pulls Record and Workout events out of an export.xml document one at
// a time. Only the current element is held in memory.
type Reader struct {
	dec    *xml.Decoder
	closer io.Closer
	size   int64
	events int
}

// Open opens path for streaming. A missing or unreadable file yields
// ErrSourceNotFound before any event is produced.
func Open(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	r := NewReader(f)
	r.closer = f
	r.size = info.Size()
	return r, nil
}

// NewReader streams events from src. The caller keeps ownership of src.
func NewReader(src io.Reader) *Reader {
	dec := xml.NewDecoder(bufio.NewReaderSize(src, readBufferSize))
	dec.Strict = true
	return &Reader{dec: dec}
}

// Close releases the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Size is the byte size of the opened file, or 0 for NewReader.
func (r *Reader) Size() int64 { return r.size }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.dec.InputOffset() }

// Events is the number of events returned so far.
func (r *Reader) Events() int { return r.events }

// Next returns the next Record or Workout in document order, including
// records nested in other elements such as Correlation. It returns io.EOF
// once the document is exhausted.
func (r *Reader) Next() (Event, error) {
	for {
		offset := r.dec.InputOffset()
		tok, err := r.dec.Token()
		if err == io.EOF {
			return Event{}, io.EOF
		}
		if err != nil {
			return Event{}, fmt.Errorf("decode export at offset %d: %w", r.dec.InputOffset(), err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		kind, ok := elementNames[start.Name.Local]
		if !ok {
			continue
		}

		ev := Event{Kind: kind, Offset: offset}
		switch kind {
		case KindRecord:
			ev.Record = recordFromAttrs(start.Attr)
			if err := r.dec.Skip(); err != nil {
				return Event{}, fmt.Errorf("skip record children at offset %d: %w", offset, err)
			}
		case KindWorkout:
			w, err := r.readWorkout(start)
			if err != nil {
				return Event{}, fmt.Errorf("read workout at offset %d: %w", offset, err)
			}
			ev.Workout = w
		}
		r.events++
		return ev, nil
	}
}

func (r *Reader) readWorkout(start xml.StartElement) (*Workout, error) {
	w := workoutFromAttrs(start.Attr)
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return w, nil
		case xml.StartElement:
			switch t.Name.Local {
			case "WorkoutStatistics":
				w.Statistics = append(w.Statistics, statisticFromAttrs(t.Attr))
			case "MetadataEntry":
				w.Metadata = append(w.Metadata, metadataFromAttrs(t.Attr))
			}
			if err := r.dec.Skip(); err != nil {
				return nil, err
			}
		}
	}
}

func recordFromAttrs(attrs []xml.Attr) *Record {
	rec := &Record{}
	for _, a := range attrs {
		switch a.Name.Local {
		case "type":
			rec.Type = a.Value
		case "value":
			rec.Value = a.Value
		case "unit":
			rec.Unit = a.Value
		case "sourceName":
			rec.SourceName = a.Value
		case "device":
			rec.Device = a.Value
		case "creationDate":
			rec.CreationDate = a.Value
		case "startDate":
			rec.StartDate = a.Value
		case "endDate":
			rec.EndDate = a.Value
		}
	}
	return rec
}

func workoutFromAttrs(attrs []xml.Attr) *Workout {
	w := &Workout{}
	for _, a := range attrs {
		switch a.Name.Local {
		case "workoutActivityType":
			w.ActivityType = a.Value
		case "duration":
			w.Duration = a.Value
		case "durationUnit":
			w.DurationUnit = a.Value
		case "totalDistance":
			w.TotalDistance = a.Value
		case "totalDistanceUnit":
			w.TotalDistanceUnit = a.Value
		case "totalEnergyBurned":
			w.TotalEnergyBurned = a.Value
		case "totalEnergyBurnedUnit":
			w.TotalEnergyBurnedUnit = a.Value
		case "sourceName":
			w.SourceName = a.Value
		case "device":
			w.Device = a.Value
		case "startDate":
			w.StartDate = a.Value
		case "endDate":
			w.EndDate = a.Value
		}
	}
	return w
}

func statisticFromAttrs(attrs []xml.Attr) WorkoutStatistic {
	var s WorkoutStatistic
	for _, a := range attrs {
		switch a.Name.Local {
		case "type":
			s.Type = a.Value
		case "sum":
			s.Sum = a.Value
		case "average":
			s.Average = a.Value
		case "minimum":
			s.Minimum = a.Value
		case "maximum":
			s.Maximum = a.Value
		case "unit":
			s.Unit = a.Value
		}
	}
	return s
}

func metadataFromAttrs(attrs []xml.Attr) MetadataEntry {
	var m MetadataEntry
	for _, a := range attrs {
		switch a.Name.Local {
		case "key":
			m.Key = a.Value
		case "value":
			m.Value = a.Value
		}
	}
	return m
}

package healthexport

import "errors"

// ErrSourceNotFound is returned when the export document cannot be opened.
var ErrSourceNotFound = errors.New("export source not found")

// Kind identifies the element an Event was built from.
type Kind int

const (
	KindRecord Kind = iota + 1
	KindWorkout
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "Record"
	case KindWorkout:
		return "Workout"
	default:
		return "Unknown"
	}
}

// Event is one element handed out by Reader.Next. Exactly one of Record or
// Workout is set, matching Kind.
type Event struct {
	Kind    Kind
	Offset  int64
	Record  *Record
	Workout *Workout
}

// Record carries the raw attributes of a <Record> element. Values are kept as
// strings; numeric and time parsing happens in the classifier.
type Record struct {
	Type         string `json:"type"`
	Value        string `json:"value,omitempty"`
	Unit         string `json:"unit,omitempty"`
	SourceName   string `json:"source_name,omitempty"`
	Device       string `json:"device,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// WorkoutStatistic is a nested <WorkoutStatistics> child.
type WorkoutStatistic struct {
	Type    string `json:"type"`
	Sum     string `json:"sum,omitempty"`
	Average string `json:"average,omitempty"`
	Minimum string `json:"minimum,omitempty"`
	Maximum string `json:"maximum,omitempty"`
	Unit    string `json:"unit,omitempty"`
}

// MetadataEntry is a nested <MetadataEntry> child.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Workout carries the raw attributes of a <Workout> element and the children
// the analysis needs.
type Workout struct {
	ActivityType          string             `json:"workout_activity_type"`
	Duration              string             `json:"duration,omitempty"`
	DurationUnit          string             `json:"duration_unit,omitempty"`
	TotalDistance         string             `json:"total_distance,omitempty"`
	TotalDistanceUnit     string             `json:"total_distance_unit,omitempty"`
	TotalEnergyBurned     string             `json:"total_energy_burned,omitempty"`
	TotalEnergyBurnedUnit string             `json:"total_energy_burned_unit,omitempty"`
	SourceName            string             `json:"source_name,omitempty"`
	Device                string             `json:"device,omitempty"`
	StartDate             string             `json:"start_date"`
	EndDate               string             `json:"end_date"`
	Statistics            []WorkoutStatistic `json:"statistics,omitempty"`
	Metadata              []MetadataEntry    `json:"metadata,omitempty"`
}

// Statistic returns the first statistics entry of the given type.
func (w *Workout) Statistic(typ string) (WorkoutStatistic, bool) {
	for _, s := range w.Statistics {
		if s.Type == typ {
			return s, true
		}
	}
	return WorkoutStatistic{}, false
}

// MetadataValue returns the value stored under key.
func (w *Workout) MetadataValue(key string) (string, bool) {
	for _, m := range w.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

package healthexport

// Record type identifiers used by the report jobs.
const (
	TypeHeartRate              = "HKQuantityTypeIdentifierHeartRate"
	TypeVO2Max                 = "HKQuantityTypeIdentifierVO2Max"
	TypeBodyMass               = "HKQuantityTypeIdentifierBodyMass"
	TypeDistanceWalkingRunning = "HKQuantityTypeIdentifierDistanceWalkingRunning"
	TypeDistanceWalking        = "HKQuantityTypeIdentifierDistanceWalking"
	TypeDistanceHiking         = "HKQuantityTypeIdentifierDistanceHiking"
	TypeActiveEnergyBurned     = "HKQuantityTypeIdentifierActiveEnergyBurned"
	TypeBasalEnergyBurned      = "HKQuantityTypeIdentifierBasalEnergyBurned"
)

// Workout activity identifiers.
const (
	ActivityWalking = "HKWorkoutActivityTypeWalking"
	ActivityRunning = "HKWorkoutActivityTypeRunning"
	ActivityHiking  = "HKWorkoutActivityTypeHiking"
)

// MetadataElevationAscended holds the climb of a workout, e.g. "1234 cm".
const MetadataElevationAscended = "HKElevationAscended"

// DistanceTypes lists every record type that carries walking distance.
var DistanceTypes = []string{
	TypeDistanceWalkingRunning,
	TypeDistanceWalking,
	TypeDistanceHiking,
}

// IsDistanceType reports whether typ carries a distance quantity.
func IsDistanceType(typ string) bool {
	for _, t := range DistanceTypes {
		if t == typ {
			return true
		}
	}
	return false
}

var elementNames = map[string]Kind{
	"Record":  KindRecord,
	"Workout": KindWorkout,
}

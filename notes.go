package healthxl

import (
	"fmt"
	"math"
	"strings"
)

// BuildWorkoutNotes turns a workout report into a plain-text summary.
func BuildWorkoutNotes(r *WorkoutReport) string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Workout: %s\n", strings.TrimPrefix(r.ActivityType, "HKWorkoutActivityType"))
	if !r.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", r.StartTime.Format("Monday, January 02 15:04"))
	}
	fmt.Fprintf(
		&b,
		"Workout time %s | Elapsed %s | Distance %.2f km\n",
		FormatClock(r.DurationMinutes*60),
		FormatClock(r.ElapsedMinutes*60),
		r.DistanceKm,
	)
	fmt.Fprintf(
		&b,
		"Energy %.0f active / %.0f total kcal",
		r.ActiveKcal,
		r.TotalKcal,
	)
	if r.ElevationGainM != nil {
		fmt.Fprintf(&b, " | Elevation +%.0f m", *r.ElevationGainM)
	}
	b.WriteByte('\n')
	fmt.Fprintf(
		&b,
		"HR %.0f avg / %.0f max bpm | Pace %s\n",
		r.AvgHeartRate,
		r.MaxHeartRate,
		FormatPace(r.AvgPaceSecPerKm),
	)
	if r.DistanceEncoding != EncodingNone {
		fmt.Fprintf(&b, "Distance samples: %d (%s)\n", r.DistanceSamples, r.DistanceEncoding)
	}

	if len(r.Zones) > 0 {
		b.WriteString("\nHeart Rate Zones\n")
		for _, z := range r.Zones {
			fmt.Fprintf(
				&b,
				"- %s (%s): %s (%.1f%%)\n",
				z.Name,
				z.RangeLabel(),
				FormatMinSec(z.Seconds),
				z.Percentage,
			)
		}
	}

	if len(r.Splits) > 0 {
		b.WriteString("\nSplits\n")
		for _, sp := range r.Splits {
			label := fmt.Sprintf("KM %d", sp.Index)
			if sp.Partial {
				label = fmt.Sprintf("KM %d (%.2f)", sp.Index, sp.TargetKm)
			}
			fmt.Fprintf(
				&b,
				"- %s at %s | %s | %s/km | %d bpm\n",
				label,
				sp.Arrival.Format("15:04"),
				FormatMinSec(sp.Duration.Seconds()),
				FormatPace(sp.PaceSecPerKm),
				sp.AvgHeartRate,
			)
		}
	} else {
		b.WriteString("\nSplits\n- No distance samples inside the workout window.\n")
	}

	b.WriteString("\nAssessment\n- ")
	b.WriteString(intensityAssessment(r))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func intensityAssessment(r *WorkoutReport) string {
	if len(r.Zones) == 0 {
		return "No heart-rate zone data available."
	}
	easy, hard := 0.0, 0.0
	for i, z := range r.Zones {
		if i < 2 {
			easy += z.Percentage
		} else {
			hard += z.Percentage
		}
	}
	switch {
	case hard >= 50:
		return fmt.Sprintf("Mostly above Zone 2 (%.0f%% of the time); treat this as a hard session.", hard)
	case easy >= 80:
		return fmt.Sprintf("Easy aerobic effort with %.0f%% of the time in Zones 1-2.", easy)
	default:
		return "Mixed intensity; steady aerobic work with some harder stretches."
	}
}

// FormatClock renders seconds as h:mm:ss.
func FormatClock(seconds float64) string {
	if seconds <= 0 || !isFinite(seconds) {
		return "0:00:00"
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// FormatMinSec renders seconds as mm:ss, with minutes growing past 59.
func FormatMinSec(seconds float64) string {
	if seconds <= 0 || !isFinite(seconds) {
		return "00:00"
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// FormatPace renders seconds per kilometre as m'ss".
func FormatPace(secPerKm float64) string {
	if secPerKm <= 0 || !isFinite(secPerKm) {
		return ""
	}
	s := int(math.Floor(secPerKm))
	return fmt.Sprintf("%d'%02d\"", s/60, s%60)
}

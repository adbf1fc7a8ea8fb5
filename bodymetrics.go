package healthxl

import "time"

// WeightVO2Row is one day of the weight versus VO2max table.
type WeightVO2Row struct {
	Date             time.Time `json:"date"`
	WeightKg         *float64  `json:"weight_kg,omitempty"`
	VO2Max           *float64  `json:"vo2max,omitempty"`
	DaysFromStart    int       `json:"days_from_start"`
	WeightDeltaKg    *float64  `json:"weight_delta_kg_from_start,omitempty"`
	VO2Delta         *float64  `json:"vo2_delta_from_start,omitempty"`
	VO2GainPerKgLost *float64  `json:"vo2_gain_per_kg_lost,omitempty"`
}

// BuildWeightVO2 outer-joins daily mean weight and daily max VO2max and adds
// progress metrics relative to the first row and the first known values.
// VO2 gain per kg lost is only defined on days where weight is below the
// starting weight and VO2max is known. Rows are sorted by date ascending.
func BuildWeightVO2(weight, vo2 []DailyValue) []WeightVO2Row {
	joined := OuterJoin(weight, vo2)
	if len(joined) == 0 {
		return nil
	}

	var startWeight, startVO2 *float64
	for _, row := range joined {
		if startWeight == nil && row.Values[0] != nil {
			startWeight = row.Values[0]
		}
		if startVO2 == nil && row.Values[1] != nil {
			startVO2 = row.Values[1]
		}
	}

	first := joined[0].Date
	out := make([]WeightVO2Row, 0, len(joined))
	for _, row := range joined {
		r := WeightVO2Row{
			Date:          row.Date,
			WeightKg:      row.Values[0],
			VO2Max:        row.Values[1],
			DaysFromStart: int(row.Date.Sub(first).Hours() / 24),
		}
		if r.WeightKg != nil && startWeight != nil {
			d := *r.WeightKg - *startWeight
			r.WeightDeltaKg = &d
		}
		if r.VO2Max != nil && startVO2 != nil {
			d := *r.VO2Max - *startVO2
			r.VO2Delta = &d
		}
		if r.WeightDeltaKg != nil && *r.WeightDeltaKg < 0 && r.VO2Delta != nil {
			gain := *r.VO2Delta / -*r.WeightDeltaKg
			r.VO2GainPerKgLost = &gain
		}
		out = append(out, r)
	}
	return out
}

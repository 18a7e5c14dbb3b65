package analytics

// Rank is a mileage tier shown on the vehicle card.
type Rank struct {
	Name     string  `json:"name"`
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Progress float64 `json:"progress"`   // 0-100 within the tier
	KmToNext int     `json:"km_to_next"` // negative once past the legend cap
}

var rankTiers = []Rank{
	{Name: "legend", Min: 50000, Max: 100000},
	{Name: "elite", Min: 20000, Max: 50000},
	{Name: "veteran", Min: 5000, Max: 20000},
	{Name: "recruit", Min: 0, Max: 5000},
}

// RankFor places a mileage in its tier. Negative mileage ranks as recruit.
func RankFor(mileage int) Rank {
	if mileage < 0 {
		mileage = 0
	}
	var r Rank
	for _, tier := range rankTiers {
		if mileage >= tier.Min {
			r = tier
			break
		}
	}
	r.Progress = clampPercent(float64(mileage-r.Min) / float64(r.Max-r.Min) * 100)
	r.KmToNext = r.Max - mileage
	return r
}

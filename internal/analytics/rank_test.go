package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankFor(t *testing.T) {
	tests := []struct {
		mileage  int
		name     string
		progress float64
		toNext   int
	}{
		{-10, "recruit", 0, 5000},
		{0, "recruit", 0, 5000},
		{2500, "recruit", 50, 2500},
		{5000, "veteran", 0, 15000},
		{35000, "elite", 50, 15000},
		{50000, "legend", 0, 50000},
		{150000, "legend", 100, -50000},
	}
	for _, tt := range tests {
		r := RankFor(tt.mileage)
		assert.Equal(t, tt.name, r.Name, "mileage %d", tt.mileage)
		assert.InDelta(t, tt.progress, r.Progress, 1e-9, "mileage %d", tt.mileage)
		assert.Equal(t, tt.toNext, r.KmToNext, "mileage %d", tt.mileage)
	}
}

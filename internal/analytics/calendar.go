package analytics

import (
	"math"
	"time"
)

// DaysBetween returns the number of whole days from start to end, truncated
// toward zero. It is negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// AddDays moves t by days calendar days. Positive fractions are dropped, so
// AddDays(t, 2.9) is two days later. Negative fractions round away from zero,
// so any negative offset lands strictly before t.
func AddDays(t time.Time, days float64) time.Time {
	if days < 0 {
		return t.AddDate(0, 0, int(math.Floor(days)))
	}
	return t.AddDate(0, 0, int(days))
}

// Service dates are calendar days stored as UTC midnight, so their day and
// month are read in UTC. now is read in its own location.

func sameDay(serviceDate, now time.Time) bool {
	sy, sm, sd := serviceDate.UTC().Date()
	ny, nm, nd := now.Date()
	return sy == ny && sm == nm && sd == nd
}

func monthKey(serviceDate time.Time) string {
	return serviceDate.UTC().Format("2006-01")
}

package attendance

import "time"

// DayInterval is the half-open interval [Start, End) covering one calendar
// day. The same interval backs both the duplicate check on marking and the
// single-day list filter, so their boundary handling cannot drift apart.
type DayInterval struct {
	Start time.Time
	End   time.Time
}

// Day computes the calendar-day interval containing t in the given location.
func Day(t time.Time, loc *time.Location) DayInterval {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return DayInterval{Start: start, End: start.AddDate(0, 0, 1)}
}

func (d DayInterval) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

package notify

import "time"

// DefaultBusinessHours treats 22:00-07:00 as night and releases delayed
// pushes at the next 09:00.
type DefaultBusinessHours struct{}

func (DefaultBusinessHours) IsNightTime(t time.Time) bool {
	h := t.Hour()
	return h >= 22 || h < 7
}

func (DefaultBusinessHours) NextBusinessTime(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

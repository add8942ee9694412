package domain

import "time"

// WillExpireAt derives the moment an unaccepted booking stops being
// offered to translators. It is a pure function of the due time and a
// reference time (creation or reopen), never independently settable.
//
// Bookings due very soon stay open until due; short-notice bookings get
// a 90 minute acceptance window; bookings within three days get 16
// hours; anything further out expires 48 hours before due.
func WillExpireAt(due, ref time.Time) time.Time {
	diff := due.Sub(ref)
	switch {
	case diff <= 90*time.Minute:
		return due
	case diff <= 24*time.Hour:
		return ref.Add(90 * time.Minute)
	case diff <= 72*time.Hour:
		return ref.Add(16 * time.Hour)
	default:
		return due.Add(-48 * time.Hour)
	}
}

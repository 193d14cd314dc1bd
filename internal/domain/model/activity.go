package model

import "time"

// ActivityRecord tracks per-repository admission state: when the last request
// was accepted or processed, and how many attempts have been registered since
// the last calendar-day rollover.
type ActivityRecord struct {
	RepoName       string
	LastActivityAt time.Time
	AttemptsToday  int
}

// SameDay reports whether the record's last activity falls on the same
// calendar day as now. A difference in day, month, or year counts as a
// rollover and resets the daily attempt counter. Both instants are compared
// in now's location: stores persist UTC-normalized timestamps, and comparing
// a UTC date against a local one would shift the rollover boundary.
func (r ActivityRecord) SameDay(now time.Time) bool {
	y1, m1, d1 := r.LastActivityAt.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

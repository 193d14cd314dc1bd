package model

import "time"

// QuotaPolicy is the process-wide admission policy, loaded once at startup
// and immutable for the process lifetime.
type QuotaPolicy struct {
	MaxRequestsPerDay int
	TeamCount         int
	RequestsPerTeam   int
	Cooldown          time.Duration
}

// AllowedPerDay returns the effective daily allowance: the global ceiling
// capped by the per-team budget.
func (q QuotaPolicy) AllowedPerDay() int {
	teamTotal := q.TeamCount * q.RequestsPerTeam
	if teamTotal < q.MaxRequestsPerDay {
		return teamTotal
	}
	return q.MaxRequestsPerDay
}

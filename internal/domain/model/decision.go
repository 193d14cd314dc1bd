package model

// DecisionReason classifies why an admission decision came out the way it did.
type DecisionReason string

const (
	// DecisionFirstUse is the first-ever request for a repository.
	DecisionFirstUse DecisionReason = "first_use"
	// DecisionDayRollover is the first request on a new calendar day.
	DecisionDayRollover DecisionReason = "day_rollover"
	// DecisionAccepted is a normal same-day acceptance under quota.
	DecisionAccepted DecisionReason = "accepted"
	// DecisionCooldown rejects a request arriving before the cooldown elapsed.
	DecisionCooldown DecisionReason = "cooldown"
	// DecisionQuotaExhausted rejects a request after the daily allowance is spent.
	DecisionQuotaExhausted DecisionReason = "quota_exhausted"
)

// Decision is the outcome of an admission check. Rejections are normal
// negative results, not errors: Message is always suitable for posting back
// to the pull request as-is.
type Decision struct {
	Allowed      bool
	Reason       DecisionReason
	Message      string
	Remaining    int
	AllowedTotal int
}

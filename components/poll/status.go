package poll

import "time"

const unhealthyAfterFailures = 3

// Status describes the recent health of a subscription.
type Status struct {
	Ticks               uint64    `json:"ticks"`
	Updates             uint64    `json:"updates"`
	Failures            uint64    `json:"failures"`
	Skipped             uint64    `json:"skipped"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastAttempt         time.Time `json:"last_attempt"`
	LastSuccess         time.Time `json:"last_success"`
	Cancelled           bool      `json:"cancelled"`
}

// Healthy reports whether the subscription has published at least once and is not failing repeatedly.
func (s Status) Healthy() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < unhealthyAfterFailures
}

// Stale reports whether no update landed within two intervals of now.
func (s Status) Stale(now time.Time, interval time.Duration) bool {
	if s.LastSuccess.IsZero() {
		return true
	}
	return now.Sub(s.LastSuccess) > 2*interval
}

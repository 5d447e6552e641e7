package domain

import "time"

// OTPRecord is a one-time password-reset code. Records are keyed by the code
// itself for O(1) validation lookup, live only in process memory, and
// self-delete at expiry.
type OTPRecord struct {
	Code      string
	Email     string
	ExpiresAt time.Time
	Used      bool
	Attempts  int
	CreatedAt time.Time
}

// Live reports whether the code can still be consumed at time now.
func (o OTPRecord) Live(now time.Time) bool {
	return !o.Used && now.Before(o.ExpiresAt)
}

package entity

import "time"

// VerificationTTL is how long an issued verification token stays redeemable.
const VerificationTTL = 6 * time.Hour

// Verification is the server-side record of an issued, not yet redeemed
// email verification token. TokenHash is a bcrypt hash of the raw token;
// the raw token itself is never stored.
type Verification struct {
	ID        string
	AccountID string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the challenge is no longer redeemable at now.
func (v *Verification) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

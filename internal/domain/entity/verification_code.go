package entity

import "time"

// VerificationCodeTTL is how long an issued code stays usable.
const VerificationCodeTTL = 5 * time.Minute

// VerificationCode is the single live email-verification secret of an account.
type VerificationCode struct {
	ID        string
	AccountID string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewVerificationCode issues code for accountID at now.
func NewVerificationCode(accountID, code string, now time.Time) *VerificationCode {
	return &VerificationCode{
		AccountID: accountID,
		Code:      code,
		ExpiresAt: now.Add(VerificationCodeTTL),
		CreatedAt: now,
	}
}

// IsExpired reports whether now is at or past the expiry instant.
func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// Matches reports whether submitted equals the code and the code is still live at now.
func (v *VerificationCode) Matches(submitted string, now time.Time) bool {
	return v.Code == submitted && !v.IsExpired(now)
}

package entity

import (
	"time"
)

// Account is the aggregate root for registration and authentication.
// PasswordHash is empty until registration is finalized.
type Account struct {
	ID              string
	Email           string
	PasswordHash    string
	EmailVerified   bool
	Role            Role
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPendingAccount returns an unverified BASIC account for email.
func NewPendingAccount(email string) *Account {
	return &Account{Email: email, Role: RoleBasic}
}

// IsComplete reports whether the account finished registration and may log in.
func (a *Account) IsComplete() bool {
	return a.EmailVerified && a.PasswordHash != ""
}

// RegistrationState derives the state-machine position of the account.
func (a *Account) RegistrationState() RegistrationState {
	switch {
	case a == nil:
		return StateAbsent
	case a.IsComplete():
		return StateComplete
	case a.EmailVerified:
		return StateVerified
	default:
		return StatePending
	}
}

// RegistrationState is the lifecycle position of an email address.
type RegistrationState string

const (
	StateAbsent   RegistrationState = "ABSENT"
	StatePending  RegistrationState = "PENDING"
	StateVerified RegistrationState = "VERIFIED"
	StateComplete RegistrationState = "COMPLETE"
)

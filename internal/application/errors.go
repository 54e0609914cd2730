package application

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrMailDelivery     = errors.New("verification mail could not be sent")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrInvalidPassword  = errors.New("password must not be empty")
	ErrUploadsDisabled  = errors.New("profile image uploads are not configured")
	ErrSearchDisabled   = errors.New("account search is not configured")
)

// Login failure reasons.
const (
	ReasonNotRegistered  = "not registered"
	ReasonIncomplete     = "registration incomplete"
	ReasonBadCredentials = "bad credentials"
)

// LoginFailError is a client-facing login rejection carrying a human-readable reason.
type LoginFailError struct {
	Reason string
}

func (e *LoginFailError) Error() string { return "login failed: " + e.Reason }

func loginFail(reason string) error { return &LoginFailError{Reason: reason} }

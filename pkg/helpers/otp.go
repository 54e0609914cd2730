package helpers

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	verificationCodeMin = 1000
	verificationCodeMax = 9999
)

// KeyRegistrationLock is the lock key serializing registration steps for one email.
func KeyRegistrationLock(email string) string {
	return "lock:registration:" + email
}

// GenVerificationCode returns a uniformly random 4-digit code in [1000, 9999].
func GenVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(verificationCodeMax-verificationCodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+verificationCodeMin, 10), nil
}

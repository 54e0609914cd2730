package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSigningKeyBytes is the smallest HS512 key accepted (512 bits).
const MinSigningKeyBytes = 64

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWeakSigningKey = fmt.Errorf("signing key must be at least %d bytes", MinSigningKeyBytes)
)

// JWTManager mints and validates HS512 bearer tokens.
// The key is fixed at construction and only read afterwards.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTOption customizes a JWTManager.
type JWTOption func(*JWTManager)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) { m.now = now }
}

func NewJWTManager(secret []byte, issuer string, ttl time.Duration, opts ...JWTOption) (*JWTManager, error) {
	if len(secret) < MinSigningKeyBytes {
		return nil, ErrWeakSigningKey
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	m := &JWTManager{secret: key, issuer: issuer, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Claims is the token payload: registered claims plus email and role.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs a token for subject with the given email and role.
func (m *JWTManager) Mint(subject, email, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	s, err := t.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// Validate verifies signature, issuer and expiry. Every failure wraps ErrInvalidToken.
func (m *JWTManager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

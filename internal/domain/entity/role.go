package entity

import (
	"fmt"
	"strings"
)

// Role represents an authorization tier carried in tokens as its string form.
type Role string

const (
	RoleBasic   Role = "BASIC"
	RolePremium Role = "PREMIUM"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBasic, RolePremium, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a claim or column value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// PromotionPolicy maps a role to the role it is promoted to.
type PromotionPolicy map[Role]Role

// DefaultPromotionPolicy lifts BASIC accounts to PREMIUM and leaves other tiers alone.
func DefaultPromotionPolicy() PromotionPolicy {
	return PromotionPolicy{RoleBasic: RolePremium}
}

// NewPromotionPolicy builds a policy from raw role names.
func NewPromotionPolicy(table map[string]string) (PromotionPolicy, error) {
	p := PromotionPolicy{}
	for from, to := range table {
		f, err := ParseRole(from)
		if err != nil {
			return nil, err
		}
		t, err := ParseRole(to)
		if err != nil {
			return nil, err
		}
		p[f] = t
	}
	return p, nil
}

// Next returns the role r is promoted to. Roles without a transition stay put.
func (p PromotionPolicy) Next(r Role) Role {
	if next, ok := p[r]; ok {
		return next
	}
	return r
}

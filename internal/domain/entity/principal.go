package entity

// Principal is the identity attached to an authenticated request.
type Principal struct {
	AccountID string
	Email     string
	Role      Role
}

// HasRole reports whether the principal holds one of allowed.
func (p *Principal) HasRole(allowed ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range allowed {
		if p.Role == r {
			return true
		}
	}
	return false
}

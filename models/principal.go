package models

// Principal kinds
const (
	PrincipalStaff     = "staff"
	PrincipalOutlet    = "outlet"
	PrincipalCandidate = "candidate"
)

// Principal is the authenticated caller. It is derived from a session token, never stored.
type Principal struct {
	ID    uint   `json:"id"`
	Role  string `json:"role"`
	Kind  string `json:"kind"`
	Phone string `json:"phone,omitempty"` // candidate sessions only
}

// IsOutlet reports whether the outlet itself is the logged-in principal
func (p *Principal) IsOutlet() bool {
	return p != nil && p.Kind == PrincipalOutlet
}

func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

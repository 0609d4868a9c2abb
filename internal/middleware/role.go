package middleware // middleware provides shared request processing for handlers

import "github.com/iliyamo/store-rating/internal/model"

// Policy describes who may call a guarded route.  An empty Roles slice
// admits any authenticated caller.  InvalidMessage is returned for a bad
// or expired token and DeniedMessage for a role mismatch.
type Policy struct {
	Roles          []model.Role
	InvalidMessage string
	DeniedMessage  string
}

func (p Policy) allows(r model.Role) bool {
	if len(p.Roles) == 0 {
		return r.Valid()
	}
	for _, want := range p.Roles {
		if r == want {
			return true
		}
	}
	return false
}

// Authenticated admits every valid token.
func Authenticated(invalidMessage string) Policy {
	return Policy{InvalidMessage: invalidMessage}
}

// RequireRole admits only the listed roles.
func RequireRole(invalidMessage, deniedMessage string, roles ...model.Role) Policy {
	return Policy{Roles: roles, InvalidMessage: invalidMessage, DeniedMessage: deniedMessage}
}

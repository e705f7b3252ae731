package session

import "github.com/freelancehq/freelance-manager/internal/core/domain"

// Static is a session whose identity was resolved elsewhere, e.g. from a
// verified bearer token on a single request.
type Static struct {
	identity *domain.Identity
}

func NewStatic(identity *domain.Identity) Static {
	return Static{identity: identity}
}

// Anonymous is a session with no identity.
var Anonymous = Static{}

func (s Static) Identity() *domain.Identity {
	return s.identity
}

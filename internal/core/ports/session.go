package ports

import "github.com/freelancehq/freelance-manager/internal/core/domain"

// Session exposes the identity record access is scoped to. It is read at
// call time, so a nil result means "not logged in" for that call only.
type Session interface {
	Identity() *domain.Identity
}

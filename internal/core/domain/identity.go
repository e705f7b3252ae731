package domain

import "time"

// Identity is the authenticated user reference handed out by the identity
// provider. It is read-only to the rest of the system.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Account is the identity provider's stored record behind an Identity.
type Account struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name,omitempty"`
	PasswordHash   string    `json:"-"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (a *Account) Identity() *Identity {
	return &Identity{ID: a.ID, DisplayName: a.DisplayName, Email: a.Email}
}

package domain

import "time"

// Identity is a credential linked to a user. Local identities carry a bcrypt password hash.
type Identity struct {
	ID           string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string // the normalized email for local identities
	PasswordHash string // empty if not local
	CreatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
	IdentityProviderOIDC  IdentityProvider = "oidc"
	IdentityProviderSAML  IdentityProvider = "saml"
)

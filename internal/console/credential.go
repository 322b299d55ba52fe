package console

import "time"

// CredentialMode selects how a credential is attached to requests
type CredentialMode int

const (
	// CredentialBearer is sent as "Authorization: Bearer <value>"
	CredentialBearer CredentialMode = iota
	// CredentialCookie is sent verbatim as the Cookie header
	CredentialCookie
)

func (m CredentialMode) String() string {
	if m == CredentialCookie {
		return "cookie"
	}
	return "bearer"
}

// Credential is the live authentication material for the console API
type Credential struct {
	Mode      CredentialMode
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero means no expiry
}

// Valid reports whether the credential can be used at now
func (c Credential) Valid(now time.Time) bool {
	if c.Value == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

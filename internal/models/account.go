package models

import "time"

// Credential schemes.
const (
	SchemeBcrypt = "bcrypt"
	// SchemePlain only appears in directories written before hashing was
	// introduced; it is upgraded on load.
	SchemePlain = "plain"
)

// Credential is a tagged password representation.
type Credential struct {
	Scheme string `json:"scheme"`
	Hash   string `json:"hash"`
}

// AdminAccount is one entry of the admin directory document.
type AdminAccount struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Credential *Credential `json:"credential,omitempty"`
	Role       Role        `json:"role"`
	IsActive   bool        `json:"isActive"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`

	// LegacyPassword is read from old plaintext documents and never written back.
	LegacyPassword string `json:"password,omitempty"`
}

// Clone returns a deep copy.
func (a AdminAccount) Clone() AdminAccount {
	if a.Credential != nil {
		c := *a.Credential
		a.Credential = &c
	}
	return a
}

// Sanitized returns a copy safe to render: no credential material.
func (a AdminAccount) Sanitized() AdminAccount {
	a.Credential = nil
	a.LegacyPassword = ""
	return a
}

// Session is the authenticated identity bound to one session key. Account is
// a snapshot taken at login; it is not refreshed by other admins' edits.
type Session struct {
	ID        string       `json:"id"`
	Account   AdminAccount `json:"account"`
	CreatedAt time.Time    `json:"createdAt"`
}

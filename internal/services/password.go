package services

import (
	"crypto/subtle"
	"fmt"
	"unicode/utf8"

	"store-admin/internal/config"
	"store-admin/internal/models"

	gopass "github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// PasswordPolicy hashes, verifies and vets admin passwords.
type PasswordPolicy struct {
	cost      int
	minLength int
	minScore  int
}

func NewPasswordPolicy(cfg config.SecurityConfig) *PasswordPolicy {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	minLength := cfg.MinPasswordLength
	if minLength <= 0 {
		minLength = 6
	}
	return &PasswordPolicy{cost: cost, minLength: minLength, minScore: cfg.MinPasswordScore}
}

// Hash returns a bcrypt credential for password.
func (p *PasswordPolicy) Hash(password string) (*models.Credential, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.Credential{Scheme: models.SchemeBcrypt, Hash: string(bytes)}, nil
}

// Verify checks password against a stored credential.
func (p *PasswordPolicy) Verify(cred *models.Credential, password string) bool {
	if cred == nil {
		return false
	}
	switch cred.Scheme {
	case models.SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(password)) == nil
	case models.SchemePlain:
		return subtle.ConstantTimeCompare([]byte(cred.Hash), []byte(password)) == 1
	}
	return false
}

// Check returns a user-facing message when password is not acceptable as a
// new password, or "" when it is. Length is counted in characters.
func (p *PasswordPolicy) Check(password string) string {
	if utf8.RuneCountInString(password) < p.minLength {
		return fmt.Sprintf("New password must be at least %d characters long.", p.minLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Sprintf("New password must be at most %d bytes long.", maxPasswordBytes)
	}
	if p.minScore > 0 && gopass.PasswordStrength(password, nil).Score < p.minScore {
		return "New password is not strong enough."
	}
	return ""
}

package services

import (
	"errors"
	"time"

	"store-admin/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// defaultJWTSecret only signs tokens outside release mode; config.Validate
// refuses an empty secret there.
const defaultJWTSecret = "store-admin-default-secret-change-in-production"

// TokenService signs and verifies the session tokens handed to clients.
// The token id is the session key.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	expiresIn, err := time.ParseDuration(cfg.ExpiresIn)
	if err != nil {
		expiresIn = 24 * time.Hour
	}
	secret := cfg.Secret
	if secret == "" {
		secret = defaultJWTSecret
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: cfg.Issuer,
		ttl:    expiresIn,
		now:    time.Now,
	}
}

type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issue returns a signed token for sessionID and its expiry.
func (t *TokenService) Issue(sessionID, username, role string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := sessionClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    t.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies tokenStr and returns the session key it carries.
func (t *TokenService) Parse(tokenStr string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// Package auth signs and verifies account tokens and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose separates the token kinds so one cannot stand in for the other.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposeSession           Purpose = "session"
)

// Claims are the registered claims plus the token purpose. Subject carries
// the user id.
type Claims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
}

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret   []byte
	issuer   string
	validity time.Duration
	now      func() time.Time
}

func NewSigner(secretKey []byte, issuer string, validity time.Duration) *Signer {
	return &Signer{secret: secretKey, issuer: issuer, validity: validity, now: time.Now}
}

// Sign returns a token for userID valid for the configured duration.
func (s *Signer) Sign(userID string, purpose Purpose) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Purpose: purpose,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, expiry, issuer and purpose and returns the user
// id. Errors are common.ErrTokenMissing, common.ErrTokenExpired or
// common.ErrInvalidToken.
func (s *Signer) Verify(tokenString string, purpose Purpose) (string, error) {
	if tokenString == "" {
		return "", common.ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

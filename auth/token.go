// Package auth validates the handshake token and yields the trusted user
// identity a session is registered under. Credential storage and password
// checks live upstream; only the signed identity crosses into this module.
package auth

import (
	"chat-direct/domain/chat"
	"chat-direct/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens signs and validates the identity tokens presented at connect time.
type Tokens struct {
	secret   []byte
	duration time.Duration
}

func NewTokens(secret string, duration time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a specific user, HS256.
func (t *Tokens) Generate(userID chat.UserID) (string, error) {
	claims := &CustomClaims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-direct",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses the token, checks signature and expiration, and returns
// the embedded user identity. The claim is an arbitrary string; identities
// that would collide with storage key delimiters are rejected here, before
// they reach any component.
func (t *Tokens) Validate(tokenString string) (chat.UserID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return "", jwt.ErrSignatureInvalid
	}
	user := chat.UserID(claims.UserID)
	if !user.Valid() {
		return "", errors.ErrInvalidUserID
	}
	return user, nil
}

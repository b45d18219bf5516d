package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session roles. A cookie carries exactly one principal.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

var ErrInvalidSession = errors.New("invalid session token")

// NewSessionToken signs a session JWT for the given principal.
func NewSessionToken(secret, role string, id int) (string, error) {
	claims := jwt.MapClaims{
		"role": role,
		"id":   id,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken returns the role and principal id stored in the token.
func ParseSessionToken(secret, tokenString string) (string, int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", 0, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", 0, ErrInvalidSession
	}

	role, ok := claims["role"].(string)
	if !ok {
		return "", 0, ErrInvalidSession
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return "", 0, ErrInvalidSession
	}

	return role, int(id), nil
}

package auth

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of the identity token handed to API clients.
type AccessClaims struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims represents the JWT claims accepted by the API
type AccessClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

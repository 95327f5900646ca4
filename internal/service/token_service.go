package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/liftrecords/internal/config"
	"github.com/mansoorceksport/liftrecords/internal/domain"
)

// TokenService issues HS256 access tokens accepted by the auth middleware.
// Login itself happens at an external identity provider; this is used by
// trusted tooling and tests to mint tokens for a known user id.
type TokenService struct {
	jwtConfig config.JWTConfig
	now       func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(jwtConfig config.JWTConfig) *TokenService {
	return &TokenService{jwtConfig: jwtConfig, now: time.Now}
}

// AccessToken is a signed token and its lifetime
type AccessToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // Seconds until access token expires
}

// IssueAccessToken creates a short-lived JWT access token
func (s *TokenService) IssueAccessToken(userID, name, email string) (*AccessToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	now := s.now()
	claims := domain.AccessClaims{
		UserID: userID,
		Name:   name,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &AccessToken{
		AccessToken: signed,
		ExpiresIn:   int64(s.jwtConfig.AccessTokenExpiry.Seconds()),
	}, nil
}

package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"stow/internal/platform/middleware"
	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
)

// Claims are the JWT claims carried by access tokens. The registered Subject
// claim holds the caller's ledger identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken mints a token for the given caller. Used by tooling and
// tests; production tokens come from the identity provider sharing the key.
func (s *Service) GenerateAccessToken(caller id.Identity, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the middleware-facing
// claims.
func (s *Service) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &middleware.JWTClaims{Subject: claims.Subject}, nil
}

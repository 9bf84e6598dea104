// Package token issues and validates the bearer tokens that carry a viewer's
// identity, session, and role. The role claim is advisory input to the
// visibility model: anything unrecognized downgrades to anonymous downstream.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "patrimonio/pkg/domain"
	dErrors "patrimonio/pkg/domain-errors"
	"patrimonio/pkg/requestcontext"
)

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and validates access tokens with a shared HS256 key.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

// NewService constructs a token service.
func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Generate signs an access token for a viewer.
func (s *Service) Generate(viewer requestcontext.ViewerContext, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    viewer.UserID.String(),
		SessionID: viewer.SessionID.String(),
		Role:      string(viewer.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// Validate parses and verifies a token, returning the viewer it describes.
func (s *Service) Validate(tokenString string) (requestcontext.ViewerContext, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return requestcontext.ViewerContext{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return requestcontext.ViewerContext{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return requestcontext.ViewerContext{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return requestcontext.ViewerContext{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return requestcontext.ViewerContext{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token session")
	}

	// An unknown role is not an error: the viewer context normalizes it to
	// anonymous, so a token minted with a future role degrades safely.
	return requestcontext.ViewerContext{
		UserID:    userID,
		SessionID: sessionID,
		Role:      id.Role(claims.Role),
	}, nil
}

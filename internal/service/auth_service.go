package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4" // Import JWT library
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// TokenIssuer is the issuer claim of studio tokens.
const TokenIssuer = "fisiostudio"

// --- Error Definitions ---
var (
	ErrTokenGeneration = errors.New("failed to generate authentication token")
	ErrInvalidActor    = errors.New("actor id and a valid role are required")
)

// --- Service Interface ---

// AuthService issues the bearer tokens that identify the actor of each request.
// Accounts live outside the studio document; tokens are minted for known actor
// ids by operators.
type AuthService interface {
	IssueToken(actorID string, role domain.Role) (string, error)
	GetJWTSecret() string
}

// --- Service Implementation ---

// authService implements the AuthService interface.
type authService struct {
	jwtSecret     string
	jwtExpiration time.Duration
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 12
	}
	return &authService{
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

// Claims is the JWT payload shared by the issuer and the API middleware.
type Claims struct {
	ActorID string      `json:"uid"`  // Actor recorded in audit entries
	Role    domain.Role `json:"role"` // staff or kiosk
	jwt.RegisteredClaims
}

// IssueToken signs a token for actorID with the given role.
func (s *authService) IssueToken(actorID string, role domain.Role) (string, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || !role.Valid() {
		return "", ErrInvalidActor
	}
	now := s.now()
	claims := &Claims{
		ActorID: actorID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", ErrTokenGeneration
	}
	return signedToken, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

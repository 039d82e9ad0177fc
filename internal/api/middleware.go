package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

// Constants for context keys
const (
	ContextActorIDKey   = "actorID"
	ContextActorRoleKey = "actorRole"
)

// AccessTokenParam is the query parameter carrying the token on EventsPath.
const AccessTokenParam = "access_token"

// AuthMiddleware creates a Gin middleware for JWT authentication. The token
// must arrive in the Authorization header.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return authenticate(jwtSecret, false)
}

// StreamAuthMiddleware is AuthMiddleware for the event stream. EventSource
// clients cannot set headers, so the access_token query parameter is accepted
// as well.
func StreamAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return authenticate(jwtSecret, true)
}

func authenticate(jwtSecret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c, allowQuery)
		if !ok {
			return
		}

		// Parse and validate the token
		claims := &service.Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.ActorID == "" || !claims.Role.Valid() {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextActorIDKey, claims.ActorID)
		c.Set(ContextActorRoleKey, claims.Role)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the access_token query parameter when allowQuery is set.
func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query(AccessTokenParam); allowQuery && q != "" {
			return q, true
		}
		abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
		return "", false
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
		return "", false
	}
	return parts[1], true
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if the actor has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := getActorRoleFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", role))
	}
}

// Helper function to get the actor id from context (used by handlers)
func getActorIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextActorIDKey)
	if !exists {
		return "", errors.New("actor ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid actor ID type in context")
	}
	return idStr, nil
}

// Helper function to get the actor role from context (used by handlers)
func getActorRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextActorRoleKey)
	if !exists {
		return "", errors.New("actor role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid actor role type in context")
	}
	return role, nil
}

// actorID reads the actor id or aborts with 401.
func actorID(c *gin.Context) (string, bool) {
	id, err := getActorIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify actor from token.")
		return "", false
	}
	return id, true
}

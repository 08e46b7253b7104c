// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"errors"
	"strconv"

	"syntrabook/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// ErrInvalidToken is returned when a bearer token fails validation for any reason.
var ErrInvalidToken = errors.New("invalid or expired token")

// AgentIDFromToken parses and validates a JWT and returns the agent ID carried
// in the "sub" claim. The auth middleware in the server package uses this for
// session tokens; API keys take a separate path.
func AgentIDFromToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	// Agent ID is carried in the "sub" claim (subject claim per RFC 7519)
	subClaim, ok := claims["sub"]
	if !ok {
		return 0, ErrInvalidToken
	}
	subStr, ok := subClaim.(string)
	if !ok {
		return 0, ErrInvalidToken
	}

	agentIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return uint(agentIDVal), nil
}

// IssueToken signs a JWT for the given agent ID using the configured secret.
func IssueToken(agentID uint, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["sub"] = strconv.FormatUint(uint64(agentID), 10)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

/*
Package auth verifies the access tokens issued by the account service.
Tokens are HS256 JWTs signed with SESSION_SECRET and arrive either as a
Bearer header (mobile) or in the access-token cookie (web).
*/
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"Fitdiary/internal/utility"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	AccessTokenCookie = "access-token"
	RoleAdmin         = "admin"
	RoleUser          = "user"
)

type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JwtAuthMiddleware rejects requests without a valid token and stores
// user_id and role in the echo context.
func JwtAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := utility.GetLogger(c)

			tokenString := bearerToken(c)
			if tokenString == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing access token"})
			}

			claims, err := ParseToken(tokenString, secret)
			if err != nil {
				logger.Warn().Err(err).Msg("Token validation error")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			}

			userID, err := parseUserID(claims.UserID)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid user ID in token")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
			}

			role := claims.Role
			if role == "" {
				role = RoleUser
			}

			c.Set("user_id", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}

// RequireRole must run after JwtAuthMiddleware.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, _ := c.Get("role").(string)
			if got != role {
				utility.GetLogger(c).Warn().Str("role", got).Str("required", role).Msg("Forbidden: insufficient role")
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Insufficient permissions"})
			}
			return next(c)
		}
	}
}

// ParseToken validates signature, algorithm and expiry.
func ParseToken(tokenString, secret string) (*JwtCustomClaims, error) {
	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// parseUserID handles both UUID and VARCHAR user IDs
func parseUserID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	return s, nil
}

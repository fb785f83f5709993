package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// TokenAuth guards the JSON API with a static bearer token.
type TokenAuth struct {
	token string
}

// NewTokenAuth creates a new token guard. An empty token disables the check.
func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

// RequireToken rejects requests without a matching Authorization header.
func (m *TokenAuth) RequireToken(c fiber.Ctx) error {
	if m.token == "" {
		return c.Next()
	}

	got, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(m.token)) != 1 {
		c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="asistencia"`)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "unauthorized",
		})
	}

	return c.Next()
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

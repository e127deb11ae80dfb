package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/roomiez/modules/auth"
)

// UserContextKey is the Locals key under which AuthMiddleware stores the
// authenticated user's claims for the handlers behind it.
const UserContextKey = "user"

// AuthMiddleware guards a route group with Bearer-token authentication.
// Requests without a valid access token never reach the handlers.
func AuthMiddleware(port auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "A Bearer access token is required")
		}

		claims, err := port.ValidateToken(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: msg,
	})
}

package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

// SessionValidator checks a session token taken from the cookie.
type SessionValidator interface {
	Validate(token string) error
}

// HasSession reports whether the request carries a valid session cookie.
func HasSession(ctx *fiber.Ctx, sessions SessionValidator, cookieName string) bool {
	token := ctx.Cookies(cookieName)
	if token == "" {
		return false
	}
	return sessions.Validate(token) == nil
}

// JwtMiddleware rejects requests without a valid session cookie.
func JwtMiddleware(sessions SessionValidator, cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !HasSession(ctx, sessions, cookieName) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Not authenticated"))
		}
		return ctx.Next()
	}
}

package middleware

import (
	"hrms/apperror"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles rejects callers whose role is not in roles. It must run after JWTMiddleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return ErrorResponse(c, apperror.Unauthenticated("Unauthorized: principal not found"))
		}
		if !p.HasRole(roles...) {
			return ErrorResponse(c, apperror.Forbidden("You do not have permission to access this resource!"))
		}
		return c.Next()
	}
}

// RequireKind restricts a route to one kind of session, e.g. staff logins only.
func RequireKind(kinds ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return ErrorResponse(c, apperror.Unauthenticated("Unauthorized: principal not found"))
		}
		for _, k := range kinds {
			if p.Kind == k {
				return c.Next()
			}
		}
		return ErrorResponse(c, apperror.Forbidden("This session cannot access this resource!"))
	}
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-classroom/internal/utils"
)

// Role gates understood by WithAuth in addition to the plain role names.
const (
	AuthRoleAny        = "any"
	AuthRoleAdmin      = RoleAdmin
	AuthRoleInstructor = "instructor"
	AuthRoleStudent    = RoleStudent
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role string
	// AllowAnonymous only applies to AuthRoleAny; anonymous callers reach the handler without a user id.
	AllowAnonymous bool
}

// WithAuth wraps a single handler with an authentication check and a role gate.
// Missing users get 401 and wrong roles 403, both reported with kind forbidden.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	allowAnonymous := opts.AllowAnonymous && role == AuthRoleAny

	return func(c *fiber.Ctx) error {
		if userID, _ := c.Locals("user_id").(uint); userID == 0 {
			if allowAnonymous {
				return handler(c)
			}
			return utils.SendErrorKind(c, fiber.StatusUnauthorized, "forbidden", "authentication required")
		}

		if !roleSatisfies(role, callerRole(c)) {
			return utils.SendErrorKind(c, fiber.StatusForbidden, "forbidden", "insufficient permissions")
		}
		return handler(c)
	}
}

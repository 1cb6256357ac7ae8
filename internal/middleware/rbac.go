package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-classroom/internal/utils"
)

// Role names carried in the token role claim.
const (
	RoleAdmin     = "admin"
	RoleTrainer   = "trainer"
	RoleVolunteer = "volunteer"
	RoleStudent   = "student"
)

// RequireRole lets the request through when the caller holds any of the given roles.
// AuthRoleInstructor may be listed and matches admins and trainers.
func RequireRole(roles ...string) fiber.Handler {
	required := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
			required = append(required, role)
		}
	}

	return func(c *fiber.Ctx) error {
		current := callerRole(c)
		for _, role := range required {
			if roleSatisfies(role, current) {
				return c.Next()
			}
		}
		return utils.SendErrorKind(c, fiber.StatusForbidden, "forbidden", "insufficient permissions")
	}
}

func callerRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return strings.ToLower(strings.TrimSpace(role))
}

func roleSatisfies(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleInstructor:
		return current == RoleAdmin || current == RoleTrainer
	default:
		return current != "" && current == required
	}
}

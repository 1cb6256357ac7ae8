package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRoleAllowsStaffRoles(t *testing.T) {
	for _, role := range []string{"admin", "Trainer", "volunteer"} {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user_role", role)
			return c.Next()
		})
		app.Use(RequireRole("admin", "trainer", "volunteer"))
		app.Post("/assessments", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusCreated)
		})

		req := httptest.NewRequest(http.MethodPost, "/assessments", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, role)
	}
}

func TestRequireRoleRejectsStudents(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_role", "student")
		return c.Next()
	})
	app.Use(RequireRole("admin", "trainer"))
	app.Post("/assessments", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/assessments", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Details struct {
			Kind string `json:"kind"`
		} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "forbidden", body.Details.Kind)
}

func TestRequireRoleInstructorGate(t *testing.T) {
	cases := map[string]int{
		"admin":     fiber.StatusNoContent,
		"trainer":   fiber.StatusNoContent,
		"volunteer": fiber.StatusForbidden,
		"":          fiber.StatusForbidden,
	}
	for role, want := range cases {
		role := role
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			if role != "" {
				c.Locals("user_role", role)
			}
			return c.Next()
		})
		app.Use(RequireRole(AuthRoleInstructor))
		app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, want, resp.StatusCode, role)
	}
}

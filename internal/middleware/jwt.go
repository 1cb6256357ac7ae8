package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-classroom/internal/utils"
)

// identity is the caller resolved from a verified bearer token.
type identity struct {
	UserID         uint
	Role           string
	OrganizationID uint
}

var (
	errMissingToken = errors.New("authorization header missing")
	errMalformed    = errors.New("invalid authorization header")
	errInvalidToken = errors.New("invalid token")
)

// JWTProtected returns a middleware that validates JWT bearer tokens.
func JWTProtected(secret string) fiber.Handler {
	return jwtHandler(secret, false)
}

// JWTOptional verifies a bearer token when one is sent and lets anonymous requests through.
func JWTOptional(secret string) fiber.Handler {
	return jwtHandler(secret, true)
}

func jwtHandler(secret string, optional bool) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if errors.Is(err, errMissingToken) && optional {
			return c.Next()
		}
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, errInvalidToken.Error())
		}

		caller := identityFromClaims(claims)
		if caller.UserID > 0 {
			c.Locals("user_id", caller.UserID)
		}
		if caller.Role != "" {
			c.Locals("user_role", caller.Role)
		}
		if caller.OrganizationID > 0 {
			c.Locals("organization_id", caller.OrganizationID)
		}

		return c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on websocket
// handshakes, so upgrades may carry the token in the access_token query parameter.
func bearerToken(c *fiber.Ctx) (string, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" && strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		if token := strings.TrimSpace(c.Query("access_token")); token != "" {
			return token, nil
		}
	}
	if header == "" {
		return "", errMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", errMalformed
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errInvalidToken
	}
	return token, nil
}

func identityFromClaims(claims jwt.MapClaims) identity {
	return identity{
		UserID:         firstUintClaim(claims, "sub", "user_id", "id"),
		Role:           firstRoleClaim(claims, "role", "roles"),
		OrganizationID: firstUintClaim(claims, "org_id", "organization_id"),
	}
}

func firstUintClaim(claims jwt.MapClaims, keys ...string) uint {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case float64:
			if v > 0 {
				return uint(v)
			}
		case string:
			if parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil && parsed > 0 {
				return uint(parsed)
			}
		}
	}
	return 0
}

func firstRoleClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					if role := strings.ToLower(strings.TrimSpace(s)); role != "" {
						return role
					}
				}
			}
		}
	}
	return ""
}

/**
 * @description
 * Trigger guard for the manual pulse check.
 * - CLERK_JWKS_URL set: requires a Bearer JWT validated against the JWKS
 * - JOB_SYNC_SECRET set: requires the X-Job-Secret header
 * - neither: open (development)
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 * - github.com/MicahParks/keyfunc/v2: JWKS fetching and caching
 */

package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	JobSecretHeader = "X-Job-Secret"
	subjectLocal    = "trigger_subject"
)

var errJWKSUnavailable = errors.New("jwks unavailable")

type TriggerGuard struct {
	Keyfunc jwt.Keyfunc
	Secret  string
}

// NewTriggerGuard initializes the JWKS cache when configured. Should be called at startup.
func NewTriggerGuard(cfg *config.Config) (*TriggerGuard, error) {
	guard := &TriggerGuard{Secret: cfg.Jobs.TriggerSecret}

	if cfg.Auth.JWKSURL == "" {
		if guard.Secret == "" {
			logger.Warn("Neither CLERK_JWKS_URL nor JOB_SYNC_SECRET is set. /trigger-check is unauthenticated.")
		}
		return guard, nil
	}

	// Refresh the JWKS every hour.
	jwks, err := keyfunc.Get(cfg.Auth.JWKSURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			logger.Error("There was an error with the JWKS refresh: %v", err)
		},
	})
	if err != nil {
		guard.Keyfunc = func(*jwt.Token) (interface{}, error) {
			return nil, errJWKSUnavailable
		}
		return guard, err
	}

	guard.Keyfunc = jwks.Keyfunc
	logger.Info("Trigger guard initialized with JWKS")
	return guard, nil
}

// Handler protects the routes it is mounted on
func (g *TriggerGuard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch {
		case g.Keyfunc != nil:
			return g.requireToken(c)
		case g.Secret != "":
			return g.requireSecret(c)
		default:
			return c.Next()
		}
	}
}

func (g *TriggerGuard) requireToken(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
	}

	token, err := jwt.Parse(tokenString, g.Keyfunc)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token: " + err.Error()})
	}
	if !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing subject"})
	}

	c.Locals(subjectLocal, sub)
	return c.Next()
}

func (g *TriggerGuard) requireSecret(c *fiber.Ctx) error {
	provided := c.Get(JobSecretHeader)
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(g.Secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid job secret"})
	}
	c.Locals(subjectLocal, "job")
	return c.Next()
}

// TriggeredBy returns who passed the guard, if anyone
func TriggeredBy(c *fiber.Ctx) (string, error) {
	sub, ok := c.Locals(subjectLocal).(string)
	if !ok {
		return "", errors.New("trigger subject not found in context")
	}
	return sub, nil
}

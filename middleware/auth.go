// middleware/auth.go
package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthMiddleware guards the local API. Two credentials are accepted: the
// remote-issued session JWT the UI already holds, or the agent's device token
// (its bcrypt hash lives in CIVICSYNC_TOKEN_HASH) for operator tooling like
// queuectl.
func AuthMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Missing authorization header"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization header format"})
	}
	credential := parts[1]

	if hash := os.Getenv("CIVICSYNC_TOKEN_HASH"); hash != "" {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil {
			c.Locals("userId", "device")
			return c.Next()
		}
	}

	secret := os.Getenv("CIVIC_JWT_SECRET")
	if secret == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Agent has no session secret configured"})
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(401, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return c.Status(401).JSON(fiber.Map{"error": "Token expired"})
	}

	c.Locals("userId", claims["user_id"])
	return c.Next()
}

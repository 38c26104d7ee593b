// handlers/users.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"civicsync/services"
)

// GetCurrentUser returns the cached user snapshot.
func GetCurrentUser(c *fiber.Ctx) error {
	user := state.User()
	if user == nil {
		return c.Status(404).JSON(fiber.Map{"error": "No user loaded yet"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// SetSession stores the remote session token the UI obtained at login and
// runs the initial refresh so the state store fills up.
func SetSession(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing session token"})
	}

	if err := session.Set(body.Token); err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	if err := reportService.Refresh(c.Context()); err != nil && !errors.Is(err, services.ErrNoSession) {
		// session is stored; data loads on the next sync signal
		return c.JSON(fiber.Map{"success": true, "refreshed": false})
	}
	return c.JSON(fiber.Map{"success": true, "refreshed": true})
}

// ClearSession drops the session on sign-out. Queued reports stay on disk
// and drain when the user signs back in.
func ClearSession(c *fiber.Ctx) error {
	session.Clear()
	return c.JSON(fiber.Map{"success": true})
}

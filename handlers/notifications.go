// handlers/notifications.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications returns the latest persisted notifications.
func GetNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	notifications, err := notifier.Recent(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load notifications"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
	})
}

// MarkNotificationRead flags one notification as seen.
func MarkNotificationRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	if err := notifier.MarkRead(uint(id)); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update notification"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// handlers/sync.go
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// TriggerSync drains the queue now. Exposed for the UI's manual "sync now"
// action and for queuectl.
func TriggerSync(c *fiber.Ctx) error {
	if !session.Active() {
		return c.Status(401).JSON(fiber.Map{"error": "No active session"})
	}

	synced, err := syncService.Drain(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Drain failed"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"synced":  synced,
	})
}

// AppActive is the foreground re-activation hook: the UI calls it when the
// app regains visibility; with a session present it kicks off a drain in the
// background.
func AppActive(c *fiber.Ctx) error {
	// outlives the request
	go syncService.HandleSignal(context.Background())
	return c.JSON(fiber.Map{"success": true})
}

// QueueStatus reports how many submissions are still waiting to sync.
func QueueStatus(c *fiber.Ctx) error {
	entries, err := queue.ListAll()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read queue"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"queued":  len(entries),
		"entries": entries,
	})
}

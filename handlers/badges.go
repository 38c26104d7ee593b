// handlers/badges.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"civicsync/services"
)

// GetBadges returns the badge definitions with the user's unlock state, the
// way the UI renders the achievements screen.
func GetBadges(c *fiber.Ctx) error {
	badges := state.Badges()
	user := state.User()

	list := make([]fiber.Map, 0, len(badges))
	for _, badge := range badges {
		entry := fiber.Map{
			"id":          badge.ID,
			"name":        badge.Name,
			"description": badge.Description,
			"icon":        badge.Icon,
			"is_active":   badge.IsActive,
			"criteria":    badge.Criteria,
			"unlocked":    false,
		}
		if user != nil && user.HasAchievement(badge.ID) {
			entry["unlocked"] = true
		}
		list = append(list, entry)
	}

	unlocked := 0
	if user != nil {
		unlocked = len(user.Achievements)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"badges":   list,
		"total":    len(badges),
		"unlocked": unlocked,
	})
}

// GetUpcomingAwards previews which badges the current snapshot would earn if
// the award loop ran now. Purely informational; nothing is granted.
func GetUpcomingAwards(c *fiber.Ctx) error {
	user := state.User()
	if user == nil {
		return c.Status(404).JSON(fiber.Map{"error": "No user loaded yet"})
	}

	awards := services.PendingAwards(user, state.Reports(), state.Badges(), state.Settings().EarnBadgePoints())
	return c.JSON(fiber.Map{
		"success": true,
		"awards":  awards,
	})
}

// handlers/reports.go
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"civicsync/models"
	"civicsync/services"
)

// SubmitReport accepts a new issue report. When the direct remote create
// fails the report lands in the durable queue and the response still carries
// a (placeholder) report, so the UI treats the submission as a success.
func SubmitReport(c *fiber.Ctx) error {
	var payload models.ReportSubmission
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := reportService.Submit(c.Context(), payload)
	if err != nil {
		var vErrs validator.ValidationErrors
		switch {
		case errors.As(err, &vErrs):
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrNoSession):
			return c.Status(401).JSON(fiber.Map{"error": "Sign in before submitting"})
		case errors.Is(err, services.ErrStorageExhausted):
			return c.Status(507).JSON(fiber.Map{"error": "Local storage exhausted, report not saved"})
		default:
			return c.Status(500).JSON(fiber.Map{"error": "Failed to submit report"})
		}
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"report":  report,
		"pending": report.IsPending,
	})
}

// GetReports returns the merged, deduplicated report list, newest first.
func GetReports(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"reports": state.Reports(),
	})
}

// ConfirmReport adds the user's confirmation to an existing report.
func ConfirmReport(c *fiber.Ctx) error {
	reportID := c.Params("id")

	report, err := reportService.Confirm(c.Context(), reportID)
	if err != nil {
		if errors.Is(err, services.ErrNoSession) {
			return c.Status(401).JSON(fiber.Map{"error": "Sign in before confirming"})
		}
		return c.Status(502).JSON(fiber.Map{"error": "Failed to confirm report"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"report":  report,
	})
}

// ToggleSubscription optimistically flips the follow state for a report and
// rolls back when the remote call fails.
func ToggleSubscription(c *fiber.Ctx) error {
	reportID := c.Params("id")

	result, err := subscriptionService.Toggle(c.Context(), reportID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoSession):
			return c.Status(401).JSON(fiber.Map{"error": "Sign in before subscribing"})
		case errors.Is(err, services.ErrReportNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "Report not found"})
		default:
			return c.Status(502).JSON(fiber.Map{"error": "Subscription change failed and was rolled back"})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"report":  result.Report,
		"user":    result.User,
	})
}

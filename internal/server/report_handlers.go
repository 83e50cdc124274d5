package server

import (
	"voidline/internal/models"
	"voidline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports
func (s *Server) CreateReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		TargetType string `json:"target_type"`
		TargetID   uint   `json:"target_id"`
		Type       string `json:"type"`
		Reason     string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.CreateReport(c.Context(), service.CreateReportInput{
		ReporterID: userID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Type:       req.Type,
		Reason:     req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports handles GET /api/reports?status=pending
func (s *Server) ListReports(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	p := parsePagination(c, 50)
	reports, err := s.reportService.ListReports(c.Context(), userID, c.Query("status"), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

// GetReport handles GET /api/reports/:id
func (s *Server) GetReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.reportService.GetReport(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(report)
}

// ReviewReport handles POST /api/reports/:id/review
func (s *Server) ReviewReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.ReviewReport(c.Context(), userID, id, req.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(report)
}

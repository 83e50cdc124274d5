package server

import (
	"voidline/internal/models"
	"voidline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateVoidPost handles POST /api/void
func (s *Server) CreateVoidPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Caption       string `json:"caption"`
		ContentType   string `json:"content_type"`
		MediaURL      string `json:"media_url"`
		DurationHours int    `json:"duration_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.voidService.CreateVoidPost(c.Context(), service.CreateVoidPostInput{
		CreatorID:     userID,
		Caption:       req.Caption,
		ContentType:   req.ContentType,
		MediaURL:      req.MediaURL,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetVoidPost handles GET /api/void/:id
func (s *Server) GetVoidPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.voidService.GetVoidPost(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// GetVoidFeed handles GET /api/void/feed
func (s *Server) GetVoidFeed(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	posts, err := s.voidService.GetVoidFeed(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetUserVoidPosts handles GET /api/void/user/:id
func (s *Server) GetUserVoidPosts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	creatorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.voidService.GetUserVoidPosts(c.Context(), creatorID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// DeleteVoidPost handles DELETE /api/void/:id
func (s *Server) DeleteVoidPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.voidService.DeleteVoidPost(c.Context(), userID, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

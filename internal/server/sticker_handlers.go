package server

import (
	"net/url"

	"voidline/internal/models"
	"voidline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateStickerPack handles POST /api/stickers/packs
func (s *Server) CreateStickerPack(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CoverURL    string `json:"cover_url"`
		Price       int64  `json:"price"`
		IsPublic    *bool  `json:"is_public"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Packs are public unless the creator opts out.
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	pack, err := s.stickerService.CreatePack(c.Context(), service.CreatePackInput{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		Price:       req.Price,
		IsPublic:    isPublic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pack)
}

// ListStickerPacks handles GET /api/stickers/packs
func (s *Server) ListStickerPacks(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	packs, err := s.stickerService.ListPacks(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"packs": packs})
}

// ListMyStickerPacks handles GET /api/stickers/packs/mine
func (s *Server) ListMyStickerPacks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	packs, err := s.stickerService.ListMyPacks(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"packs": packs})
}

// GetStickerPack handles GET /api/stickers/packs/:id
func (s *Server) GetStickerPack(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	pack, err := s.stickerService.GetPack(c.Context(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pack)
}

// AddSticker handles POST /api/stickers/packs/:id/stickers
func (s *Server) AddSticker(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	packID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ImageURL string `json:"image_url"`
		Position int    `json:"position"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sticker, err := s.stickerService.AddSticker(c.Context(), service.AddStickerInput{
		UserID:   userID,
		PackID:   packID,
		ImageURL: req.ImageURL,
		Position: req.Position,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sticker)
}

// PurchaseStickerPack handles POST /api/stickers/packs/:id/purchase
//
// Free packs are granted immediately. Paid packs return a redirect URL to the
// hosted payment page; ownership lands when the gateway calls back.
func (s *Server) PurchaseStickerPack(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	packID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.stickerService.PurchasePack(c.Context(), userID, packID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// PaymentCallback handles POST /api/stickers/payment/callback
//
// The gateway authenticates itself with an HMAC signature over the form
// parameters; there is no JWT on this route.
func (s *Server) PaymentCallback(c *fiber.Ctx) error {
	params := url.Values{}
	for key, values := range c.Queries() {
		params.Set(key, values)
	}
	args := c.Context().PostArgs()
	args.VisitAll(func(key, value []byte) {
		params.Set(string(key), string(value))
	})

	if err := s.stickerService.HandlePaymentCallback(c.Context(), params); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// ApproveStickerPack handles POST /api/stickers/packs/:id/approve
func (s *Server) ApproveStickerPack(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	packID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	pack, err := s.stickerService.ApprovePack(c.Context(), userID, packID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pack)
}

// DeleteStickerPack handles DELETE /api/stickers/packs/:id
func (s *Server) DeleteStickerPack(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	packID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.stickerService.DeletePack(c.Context(), userID, packID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Pack deleted"})
}

// ListMyPurchases handles GET /api/users/me/purchases
func (s *Server) ListMyPurchases(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	purchases, err := s.stickerService.ListPurchases(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"purchases": purchases})
}

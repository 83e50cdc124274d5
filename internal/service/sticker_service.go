package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"voidline/internal/authz"
	"voidline/internal/models"
	"voidline/internal/observability"
	"voidline/internal/payment"
	"voidline/internal/repository"
)

// StickerService provides sticker marketplace business logic. Ownership is a
// Purchase row and nothing else: free packs get one auto-granted with the
// sentinel payment ref, paid packs get one only after the gateway confirms.
type StickerService struct {
	stickerRepo repository.StickerRepository
	provider    payment.Provider
	isModerator func(ctx context.Context, userID uint) (bool, error)
}

type CreatePackInput struct {
	CreatorID   uint
	Name        string
	Description string
	CoverURL    string
	Price       int64
	IsPublic    bool
}

type AddStickerInput struct {
	UserID   uint
	PackID   uint
	ImageURL string
	Position int
}

// PurchaseResult is what a purchase attempt yields: either immediate
// ownership (free packs, already-owned packs) or a redirect to the gateway.
type PurchaseResult struct {
	Owned       bool   `json:"owned"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

func NewStickerService(
	stickerRepo repository.StickerRepository,
	provider payment.Provider,
	isModerator func(ctx context.Context, userID uint) (bool, error),
) *StickerService {
	return &StickerService{
		stickerRepo: stickerRepo,
		provider:    provider,
		isModerator: isModerator,
	}
}

func (s *StickerService) CreatePack(ctx context.Context, in CreatePackInput) (*models.StickerPack, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Pack name is required")
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("Price cannot be negative")
	}

	pack := &models.StickerPack{
		CreatorID:   in.CreatorID,
		Name:        in.Name,
		Description: in.Description,
		CoverURL:    in.CoverURL,
		Price:       in.Price,
		IsPublic:    in.IsPublic,
		// Free packs skip the moderation queue; paid packs wait for approval.
		IsApproved: in.Price == 0,
	}
	if err := s.stickerRepo.CreatePack(ctx, pack); err != nil {
		return nil, err
	}
	return pack, nil
}

// GetPack returns the pack if the viewer may see it. A private or unapproved
// pack is not-found to anyone but its creator.
func (s *StickerService) GetPack(ctx context.Context, packID, viewerID uint) (*models.StickerPack, error) {
	pack, err := s.stickerRepo.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadStickerPack(viewerID, pack) {
		return nil, models.NewNotFoundError("StickerPack", packID)
	}
	return pack, nil
}

func (s *StickerService) ListPacks(ctx context.Context, limit, offset int) ([]*models.StickerPack, error) {
	return s.stickerRepo.ListPublicPacks(ctx, limit, offset)
}

func (s *StickerService) ListMyPacks(ctx context.Context, userID uint) ([]*models.StickerPack, error) {
	return s.stickerRepo.ListPacksByCreator(ctx, userID)
}

func (s *StickerService) ListPurchases(ctx context.Context, userID uint) ([]*models.Purchase, error) {
	return s.stickerRepo.ListPurchases(ctx, userID)
}

func (s *StickerService) AddSticker(ctx context.Context, in AddStickerInput) (*models.Sticker, error) {
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, models.NewValidationError("image_url is required")
	}

	pack, err := s.stickerRepo.GetPack(ctx, in.PackID)
	if err != nil {
		return nil, err
	}
	if pack.CreatorID != in.UserID {
		return nil, models.NewForbiddenError("You can only add stickers to your own packs")
	}

	sticker := &models.Sticker{
		PackID:   in.PackID,
		ImageURL: in.ImageURL,
		Position: in.Position,
	}
	if err := s.stickerRepo.AddSticker(ctx, sticker); err != nil {
		return nil, err
	}
	return sticker, nil
}

// PurchasePack acquires a pack for the user. Free packs grant ownership
// immediately; paid packs hand back a gateway redirect URL, and ownership
// lands when the gateway's callback is verified.
func (s *StickerService) PurchasePack(ctx context.Context, userID, packID uint) (*PurchaseResult, error) {
	pack, err := s.GetPack(ctx, packID, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.stickerRepo.HasPurchase(ctx, userID, packID)
	if err != nil {
		return nil, err
	}
	if owned || pack.CreatorID == userID {
		return &PurchaseResult{Owned: true}, nil
	}

	if pack.Free() {
		if _, err := s.stickerRepo.RecordPurchase(ctx, &models.Purchase{
			UserID:     userID,
			PackID:     packID,
			Amount:     0,
			PaymentRef: models.FreePaymentRef,
		}); err != nil {
			return nil, err
		}
		return &PurchaseResult{Owned: true}, nil
	}

	if s.provider == nil {
		observability.CheckoutRequests.WithLabelValues("unavailable").Inc()
		return nil, models.NewInternalError(errors.New("payment provider is not configured"))
	}

	redirectURL, err := s.provider.Checkout(ctx, payment.CheckoutRequest{
		OrderRef:    payment.NewOrderRef(userID, packID),
		Subject:     pack.Name,
		AmountCents: pack.Price,
	})
	if err != nil {
		observability.CheckoutRequests.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	observability.CheckoutRequests.WithLabelValues("started").Inc()

	return &PurchaseResult{RedirectURL: redirectURL}, nil
}

// HandlePaymentCallback processes the gateway's asynchronous notification.
// Ownership is recorded only after the signature verifies and the paid amount
// matches the pack's current price. Replayed callbacks are absorbed by the
// purchase upsert.
func (s *StickerService) HandlePaymentCallback(ctx context.Context, params url.Values) error {
	if s.provider == nil {
		return models.NewInternalError(errors.New("payment provider is not configured"))
	}

	note, err := s.provider.VerifyNotification(params)
	if err != nil {
		observability.CheckoutRequests.WithLabelValues("rejected").Inc()
		return models.NewValidationError("Invalid payment notification")
	}
	if !note.Succeeded {
		observability.CheckoutRequests.WithLabelValues("failed").Inc()
		return nil
	}

	userID, packID, err := payment.ParseOrderRef(note.OrderRef)
	if err != nil {
		observability.CheckoutRequests.WithLabelValues("rejected").Inc()
		return models.NewValidationError("Invalid order reference")
	}

	pack, err := s.stickerRepo.GetPack(ctx, packID)
	if err != nil {
		return err
	}
	if note.AmountCents != pack.Price {
		observability.CheckoutRequests.WithLabelValues("rejected").Inc()
		return models.NewValidationError("Paid amount does not match pack price")
	}

	if _, err := s.stickerRepo.RecordPurchase(ctx, &models.Purchase{
		UserID:     userID,
		PackID:     packID,
		Amount:     note.AmountCents,
		PaymentRef: note.OrderRef,
	}); err != nil {
		return err
	}
	observability.CheckoutRequests.WithLabelValues("completed").Inc()
	return nil
}

// ApprovePack clears a paid pack for public listing. Moderators only.
func (s *StickerService) ApprovePack(ctx context.Context, moderatorID, packID uint) (*models.StickerPack, error) {
	mod, err := s.isModerator(ctx, moderatorID)
	if err != nil {
		return nil, err
	}
	if !mod {
		return nil, models.NewForbiddenError("Moderator access required")
	}

	pack, err := s.stickerRepo.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}
	pack.IsApproved = true
	if err := s.stickerRepo.UpdatePack(ctx, pack); err != nil {
		return nil, err
	}
	return pack, nil
}

// DeletePack removes a pack. Owner or moderator. Existing purchases keep
// their rows; ownership history survives the pack's removal.
func (s *StickerService) DeletePack(ctx context.Context, userID, packID uint) error {
	pack, err := s.stickerRepo.GetPack(ctx, packID)
	if err != nil {
		return err
	}
	if pack.CreatorID != userID {
		mod, err := s.isModerator(ctx, userID)
		if err != nil {
			return err
		}
		if !mod {
			return models.NewForbiddenError("You can only delete your own packs")
		}
	}
	return s.stickerRepo.DeletePack(ctx, packID)
}

package service

import (
	"context"
	"encoding/json"
	"strings"

	"voidline/internal/authz"
	"voidline/internal/models"
	"voidline/internal/repository"
)

// ChatService provides conversation and messaging business logic.
//
// All access hinges on current participation: reads by non-participants (and
// former participants) surface as not-found, writes reject outright.
type ChatService struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	stickerRepo repository.StickerRepository
}

type CreateConversationInput struct {
	CreatorID      uint
	ParticipantIDs []uint
	Name           string
	IsGroup        bool
}

type SendMessageInput struct {
	SenderID       uint
	ConversationID uint
	Content        string
	MessageType    string
	Metadata       json.RawMessage
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, stickerRepo repository.StickerRepository) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		stickerRepo: stickerRepo,
	}
}

func (s *ChatService) CreateConversation(ctx context.Context, in CreateConversationInput) (*models.Conversation, error) {
	// The creator is always a participant; dedupe the rest.
	seen := map[uint]struct{}{in.CreatorID: {}}
	ids := []uint{in.CreatorID}
	for _, id := range in.ParticipantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, models.NewValidationError("A conversation needs at least two participants")
	}
	if !in.IsGroup && len(ids) != 2 {
		return nil, models.NewValidationError("A direct conversation has exactly two participants")
	}

	for _, id := range ids {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	conv := &models.Conversation{
		Name:      in.Name,
		IsGroup:   in.IsGroup,
		CreatedBy: in.CreatorID,
	}
	if err := s.chatRepo.CreateConversation(ctx, conv, ids); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, conv.ID)
}

func (s *ChatService) GetConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.chatRepo.GetUserConversations(ctx, userID)
}

// GetConversation returns the conversation if userID is a current
// participant; otherwise not-found, never "exists but denied".
func (s *ChatService) GetConversation(ctx context.Context, convID, userID uint) (*models.Conversation, error) {
	if err := s.requireParticipantRead(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, convID)
}

func (s *ChatService) GetMessages(ctx context.Context, convID, userID uint, limit, offset int) ([]*models.Message, error) {
	if err := s.requireParticipantRead(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessages(ctx, convID, limit, offset)
}

func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	current, err := s.chatRepo.IsCurrentParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadConversation(in.SenderID, current) {
		// Writes reject outright; they don't masquerade as not-found.
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}

	messageType := in.MessageType
	if messageType == "" {
		messageType = "text"
	}
	switch messageType {
	case "text", "image", "sticker", "audio":
		// valid
	default:
		return nil, models.NewValidationError("Invalid message_type")
	}

	if messageType == "text" && strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Message content is required")
	}

	if messageType == "sticker" {
		if err := s.requireStickerOwnership(ctx, in.SenderID, in.Metadata); err != nil {
			return nil, err
		}
	}

	msg := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		MessageType:    messageType,
		Metadata:       in.Metadata,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// requireStickerOwnership enforces the commerce gate on sticker messages:
// the sender must own the sticker's pack (Purchase row or be its creator).
// Free packs are granted on first use, so the Purchase row stays the single
// source of truth without forcing an explicit checkout for a zero price.
func (s *ChatService) requireStickerOwnership(ctx context.Context, senderID uint, metadata json.RawMessage) error {
	var meta struct {
		PackID uint `json:"pack_id"`
	}
	if len(metadata) == 0 || json.Unmarshal(metadata, &meta) != nil || meta.PackID == 0 {
		return models.NewValidationError("Sticker messages need metadata.pack_id")
	}

	pack, err := s.stickerRepo.GetPack(ctx, meta.PackID)
	if err != nil {
		return err
	}
	owned, err := s.stickerRepo.HasPurchase(ctx, senderID, pack.ID)
	if err != nil {
		return err
	}
	if authz.CanUseStickerPack(senderID, pack, owned) {
		return nil
	}
	if pack.Free() {
		_, err := s.stickerRepo.RecordPurchase(ctx, &models.Purchase{
			UserID:     senderID,
			PackID:     pack.ID,
			Amount:     0,
			PaymentRef: models.FreePaymentRef,
		})
		return err
	}
	return models.NewForbiddenError("You do not own this sticker pack")
}

// AddParticipant adds (or re-adds) a user to a group conversation. Only a
// current participant may invite.
func (s *ChatService) AddParticipant(ctx context.Context, convID, userID, newUserID uint) error {
	conv, err := s.GetConversation(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !conv.IsGroup {
		return models.NewValidationError("Cannot add participants to a direct conversation")
	}
	if _, err := s.userRepo.GetByID(ctx, newUserID); err != nil {
		return err
	}
	return s.chatRepo.AddParticipant(ctx, convID, newUserID)
}

// LeaveConversation records the caller's departure. Their messages stay; their
// access ends.
func (s *ChatService) LeaveConversation(ctx context.Context, convID, userID uint) error {
	return s.chatRepo.LeaveConversation(ctx, convID, userID)
}

func (s *ChatService) MarkConversationRead(ctx context.Context, convID, userID uint) error {
	if err := s.requireParticipantRead(ctx, convID, userID); err != nil {
		return err
	}
	return s.chatRepo.UpdateLastRead(ctx, convID, userID)
}

func (s *ChatService) AddReaction(ctx context.Context, convID, msgID, userID uint, emoji string) error {
	if err := s.requireMessageInConversation(ctx, convID, msgID, userID); err != nil {
		return err
	}
	if strings.TrimSpace(emoji) == "" {
		return models.NewValidationError("Emoji is required")
	}
	return s.chatRepo.AddReaction(ctx, &models.MessageReaction{
		MessageID: msgID,
		UserID:    userID,
		Emoji:     emoji,
	})
}

func (s *ChatService) RemoveReaction(ctx context.Context, convID, msgID, userID uint, emoji string) error {
	if err := s.requireMessageInConversation(ctx, convID, msgID, userID); err != nil {
		return err
	}
	return s.chatRepo.RemoveReaction(ctx, msgID, userID, emoji)
}

// requireMessageInConversation gates reactions: the caller must be a current
// participant AND the message must actually live in that conversation, so
// membership in one conversation never reaches into another.
func (s *ChatService) requireMessageInConversation(ctx context.Context, convID, msgID, userID uint) error {
	if err := s.requireParticipantRead(ctx, convID, userID); err != nil {
		return err
	}
	msg, err := s.chatRepo.GetMessage(ctx, msgID)
	if err != nil {
		return err
	}
	if msg.ConversationID != convID {
		return models.NewNotFoundError("Message", msgID)
	}
	return nil
}

func (s *ChatService) requireParticipantRead(ctx context.Context, convID, userID uint) error {
	current, err := s.chatRepo.IsCurrentParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !authz.CanReadConversation(userID, current) {
		return models.NewNotFoundError("Conversation", convID)
	}
	return nil
}

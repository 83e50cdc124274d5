package server

import (
	"context"
	"encoding/json"

	"voidline/internal/models"
	"voidline/internal/notifications"
	"voidline/internal/observability"
	"voidline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateConversation handles POST /api/conversations
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		ParticipantIDs []uint `json:"participant_ids"`
		Name           string `json:"name"`
		IsGroup        bool   `json:"is_group"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	conv, err := s.chatService.CreateConversation(c.Context(), service.CreateConversationInput{
		CreatorID:      userID,
		ParticipantIDs: req.ParticipantIDs,
		Name:           req.Name,
		IsGroup:        req.IsGroup,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

// GetConversations handles GET /api/conversations
func (s *Server) GetConversations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	convs, err := s.chatService.GetConversations(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// GetConversation handles GET /api/conversations/:id
func (s *Server) GetConversation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	conv, err := s.chatService.GetConversation(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(conv)
}

// GetMessages handles GET /api/conversations/:id/messages
func (s *Server) GetMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	messages, err := s.chatService.GetMessages(c.Context(), id, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage handles POST /api/conversations/:id/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content     string          `json:"content"`
		MessageType string          `json:"message_type"`
		Metadata    json.RawMessage `json:"metadata"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.SendMessage(c.Context(), service.SendMessageInput{
		SenderID:       userID,
		ConversationID: id,
		Content:        req.Content,
		MessageType:    req.MessageType,
		Metadata:       req.Metadata,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishChatEvent(c.Context(), id, notifications.ChatEvent{
		Type:           "message",
		ConversationID: id,
		UserID:         userID,
		Payload:        msg,
	})
	observability.MessageThroughput.WithLabelValues(msg.MessageType).Inc()

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// AddParticipant handles POST /api/conversations/:id/participants
func (s *Server) AddParticipant(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	if err := s.chatService.AddParticipant(c.Context(), id, userID, req.UserID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishChatEvent(c.Context(), id, notifications.ChatEvent{
		Type:           "participant_added",
		ConversationID: id,
		UserID:         req.UserID,
		Payload:        fiber.Map{"conversation_id": id, "user_id": req.UserID},
	})

	return c.JSON(fiber.Map{"message": "Participant added"})
}

// LeaveConversation handles DELETE /api/conversations/:id
func (s *Server) LeaveConversation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.chatService.LeaveConversation(c.Context(), id, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	if s.chatHub != nil {
		s.chatHub.LeaveConversation(userID, id)
	}
	s.publishChatEvent(c.Context(), id, notifications.ChatEvent{
		Type:           "participant_left",
		ConversationID: id,
		UserID:         userID,
		Payload:        fiber.Map{"conversation_id": id, "user_id": userID},
	})

	return c.JSON(fiber.Map{"message": "Left conversation"})
}

// MarkConversationRead handles POST /api/conversations/:id/read
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.chatService.MarkConversationRead(c.Context(), id, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishChatEvent(c.Context(), id, notifications.ChatEvent{
		Type:           "read",
		ConversationID: id,
		UserID:         userID,
		Payload:        fiber.Map{"conversation_id": id, "user_id": userID},
	})

	return c.JSON(fiber.Map{"message": "Conversation marked as read"})
}

// AddReaction handles POST /api/conversations/:id/messages/:messageId/reactions
func (s *Server) AddReaction(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	msgID, err := s.parseID(c, "messageId")
	if err != nil {
		return nil
	}

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := c.BodyParser(&req); err != nil || req.Emoji == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("emoji is required"))
	}

	if err := s.chatService.AddReaction(c.Context(), convID, msgID, userID, req.Emoji); err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishChatEvent(c.Context(), convID, notifications.ChatEvent{
		Type:           "reaction",
		ConversationID: convID,
		UserID:         userID,
		Payload:        fiber.Map{"message_id": msgID, "emoji": req.Emoji, "removed": false},
	})

	return c.JSON(fiber.Map{"message": "Reaction added"})
}

// RemoveReaction handles DELETE /api/conversations/:id/messages/:messageId/reactions/:emoji
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	msgID, err := s.parseID(c, "messageId")
	if err != nil {
		return nil
	}
	emoji := c.Params("emoji")

	if err := s.chatService.RemoveReaction(c.Context(), convID, msgID, userID, emoji); err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishChatEvent(c.Context(), convID, notifications.ChatEvent{
		Type:           "reaction",
		ConversationID: convID,
		UserID:         userID,
		Payload:        fiber.Map{"message_id": msgID, "emoji": emoji, "removed": true},
	})

	return c.JSON(fiber.Map{"message": "Reaction removed"})
}

// publishChatEvent fans a conversation event out through Redis so every
// instance's hub delivers it to connected viewers. Delivery is best-effort.
func (s *Server) publishChatEvent(ctx context.Context, conversationID uint, event notifications.ChatEvent) {
	if s.notifier == nil {
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		observability.Logger.Error("marshal chat event failed", "error", err)
		return
	}
	if err := s.notifier.PublishConversation(ctx, conversationID, string(raw)); err != nil {
		observability.Logger.Warn("publish chat event failed",
			"conversation_id", conversationID, "error", err)
	}
}

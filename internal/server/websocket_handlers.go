package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voidline/internal/middleware"
	"voidline/internal/notifications"
	"voidline/internal/observability"
	"voidline/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketChatHandler handles WebSocket connections for real-time chat.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			observability.Logger.Warn("websocket user lookup failed", "user_id", userID, "error", err)
			_ = conn.Close()
			return
		}
		username := user.Username

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming struct {
				Type           string `json:"type"`
				ConversationID uint   `json:"conversation_id"`
				Content        string `json:"content"`
				IsTyping       bool   `json:"is_typing"`
			}
			if err := json.Unmarshal(message, &incoming); err != nil {
				return
			}

			switch incoming.Type {
			case "join":
				if s.isParticipant(ctx, incoming.ConversationID, userID) {
					s.chatHub.JoinConversation(userID, incoming.ConversationID)

					if raw, err := json.Marshal(notifications.ChatEvent{
						Type:           "joined",
						ConversationID: incoming.ConversationID,
						Payload:        map[string]any{"conversation_id": incoming.ConversationID},
					}); err == nil {
						c.TrySend(raw)
					}
				}

			case "leave":
				s.chatHub.LeaveConversation(userID, incoming.ConversationID)

			case "typing":
				if s.notifier == nil || !s.isParticipant(ctx, incoming.ConversationID, userID) {
					return
				}
				// Spammy typing indicators are silently dropped.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
				if !allowed {
					return
				}
				if perr := s.notifier.PublishTyping(ctx, incoming.ConversationID, userID, username, incoming.IsTyping); perr != nil {
					observability.Logger.Warn("publish typing failed", "error", perr)
				}

			case "message":
				// Alternative to the HTTP endpoint, same rate limit.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, 15, time.Minute)
				if !allowed {
					if raw, err := json.Marshal(notifications.ChatEvent{
						Type:    "error",
						Payload: map[string]string{"message": "Rate limit exceeded. Please wait a moment."},
					}); err == nil {
						c.TrySend(raw)
					}
					return
				}

				msg, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
					SenderID:       userID,
					ConversationID: incoming.ConversationID,
					Content:        incoming.Content,
					MessageType:    "text",
				})
				if err != nil {
					if raw, merr := json.Marshal(notifications.ChatEvent{
						Type:    "error",
						Payload: map[string]string{"message": err.Error()},
					}); merr == nil {
						c.TrySend(raw)
					}
					return
				}

				s.publishChatEvent(ctx, incoming.ConversationID, notifications.ChatEvent{
					Type:           "message",
					ConversationID: incoming.ConversationID,
					UserID:         userID,
					Username:       username,
					Payload:        msg,
				})
				observability.MessageThroughput.WithLabelValues(msg.MessageType).Inc()

			case "read":
				if err := s.chatService.MarkConversationRead(ctx, incoming.ConversationID, userID); err != nil {
					return
				}
				s.publishChatEvent(ctx, incoming.ConversationID, notifications.ChatEvent{
					Type:           "read",
					ConversationID: incoming.ConversationID,
					UserID:         userID,
					Username:       username,
					Payload:        map[string]any{"conversation_id": incoming.ConversationID, "user_id": userID},
				})
			}
		}

		if raw, err := json.Marshal(notifications.ChatEvent{
			Type:    "connected",
			Payload: map[string]any{"user_id": userID, "username": username},
		}); err == nil {
			client.TrySend(raw)
		}

		go client.WritePump()

		// Read pump blocks until the connection dies.
		client.ReadPump()
	})
}

// isParticipant checks current (not departed) membership in a conversation.
func (s *Server) isParticipant(ctx context.Context, conversationID, userID uint) bool {
	ok, err := s.chatRepo.IsCurrentParticipant(ctx, conversationID, userID)
	return err == nil && ok
}

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"voidline/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub manages WebSocket connections per conversation. A user may hold
// several connections (multi-device); a conversation event fans out to all of
// them.
type ChatHub struct {
	mu sync.RWMutex

	// conversationID -> set of userIDs actively viewing it
	conversations map[uint]map[uint]struct{}

	// userID -> set of conversationIDs they're viewing
	userActiveConvs map[uint]map[uint]struct{}

	// userID -> active clients
	userConns map[uint]map[*Client]struct{}
}

// ChatEvent is the wire format broadcast to conversation viewers.
type ChatEvent struct {
	Type           string      `json:"type"` // "message", "typing", "read", "user_status"
	ConversationID uint        `json:"conversation_id,omitempty"`
	UserID         uint        `json:"user_id,omitempty"`
	Username       string      `json:"username,omitempty"`
	Payload        interface{} `json:"payload"`
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		conversations:   make(map[uint]map[uint]struct{}),
		userActiveConvs: make(map[uint]map[uint]struct{}),
		userConns:       make(map[uint]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// Register attaches a new websocket connection for userID.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]struct{})
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = struct{}{}
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	observability.Logger.Debug("chat client registered", "user_id", userID)

	h.broadcastStatus(userID, "online")
	return client, nil
}

// UnregisterClient removes one connection. When the last connection for a
// user is gone, their conversation subscriptions are dropped and an offline
// status goes out.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	observability.WebSocketConnectionsTotal.Dec()

	if len(clients) > 0 {
		h.mu.Unlock()
		return
	}

	delete(h.userConns, client.UserID)
	for convID := range h.userActiveConvs[client.UserID] {
		if viewers, ok := h.conversations[convID]; ok {
			delete(viewers, client.UserID)
			if len(viewers) == 0 {
				delete(h.conversations, convID)
			}
		}
	}
	delete(h.userActiveConvs, client.UserID)
	h.mu.Unlock()

	observability.Logger.Debug("chat client unregistered", "user_id", client.UserID)
	h.broadcastStatus(client.UserID, "offline")
}

// IsUserOnline reports whether the user has at least one live connection.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

// JoinConversation subscribes a connected user to a conversation's events.
func (h *ChatHub) JoinConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.userConns[userID]) == 0 {
		return
	}
	if h.conversations[conversationID] == nil {
		h.conversations[conversationID] = make(map[uint]struct{})
	}
	h.conversations[conversationID][userID] = struct{}{}

	if h.userActiveConvs[userID] == nil {
		h.userActiveConvs[userID] = make(map[uint]struct{})
	}
	h.userActiveConvs[userID][conversationID] = struct{}{}
}

// LeaveConversation unsubscribes a user from a conversation's events.
func (h *ChatHub) LeaveConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if viewers, ok := h.conversations[conversationID]; ok {
		delete(viewers, userID)
		if len(viewers) == 0 {
			delete(h.conversations, conversationID)
		}
	}
	if convs, ok := h.userActiveConvs[userID]; ok {
		delete(convs, conversationID)
	}
}

// BroadcastToConversation fans an event out to every connection of every
// viewer of the conversation.
func (h *ChatHub) BroadcastToConversation(conversationID uint, event ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	viewers, ok := h.conversations[conversationID]
	if !ok {
		return
	}

	raw, err := json.Marshal(event)
	if err != nil {
		observability.Logger.Error("marshal chat event failed", "error", err)
		return
	}

	for userID := range viewers {
		for client := range h.userConns[userID] {
			client.TrySend(raw)
		}
	}
}

// ActiveViewers returns the userIDs currently viewing a conversation.
func (h *ChatHub) ActiveViewers(conversationID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	viewers := h.conversations[conversationID]
	result := make([]uint, 0, len(viewers))
	for userID := range viewers {
		result = append(result, userID)
	}
	return result
}

// StartWiring connects the hub to Redis pub/sub for conversation events.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		var conversationID uint
		var eventType string

		if _, err := fmt.Sscanf(channel, "chat:conv:%d", &conversationID); err == nil {
			eventType = "message"
		} else if _, err := fmt.Sscanf(channel, "typing:conv:%d", &conversationID); err == nil {
			eventType = "typing"
		} else {
			observability.Logger.Warn("unrecognized chat channel", "channel", channel)
			return
		}

		var event ChatEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			observability.Logger.Warn("malformed chat event", "channel", channel, "error", err)
			return
		}
		if event.Type == "" {
			event.Type = eventType
		}
		event.ConversationID = conversationID

		h.BroadcastToConversation(conversationID, event)
	})
}

func (h *ChatHub) broadcastStatus(userID uint, status string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	raw, err := json.Marshal(ChatEvent{
		Type:    "user_status",
		UserID:  userID,
		Payload: map[string]interface{}{"user_id": userID, "status": status},
	})
	if err != nil {
		return
	}

	for id, clients := range h.userConns {
		if id == userID {
			continue
		}
		for client := range clients {
			client.TrySend(raw)
		}
	}
}

// Shutdown closes every connection and clears hub state.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			_ = client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown","message":"Server is shutting down"}`))
			if err := client.Conn.Close(); err != nil {
				observability.Logger.Warn("close websocket failed", "user_id", userID, "error", err)
			}
		}
	}

	h.conversations = make(map[uint]map[uint]struct{})
	h.userActiveConvs = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]struct{})
	return nil
}

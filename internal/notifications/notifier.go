// Package notifications provides real-time delivery over Redis pub/sub and
// WebSockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"

	"voidline/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes events into Redis channels. All methods are no-ops when
// Redis is unavailable, so the API surface works without the realtime layer.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a payload to a single user's notification channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishConversation sends a chat event to a conversation channel.
func (n *Notifier) PublishConversation(ctx context.Context, conversationID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, ConversationChannel(conversationID), payload).Err()
}

// PublishTyping sends a short-lived typing indicator to a conversation.
func (n *Notifier) PublishTyping(ctx context.Context, conversationID, userID uint, username string, isTyping bool) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":       userID,
		"username":      username,
		"is_typing":     isTyping,
		"expires_in_ms": 5000,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, typingChannel(conversationID), string(payload)).Err()
}

// StartChatSubscriber subscribes to conversation patterns and calls onMessage
// for each incoming event until ctx is cancelled.
func (n *Notifier) StartChatSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.startSubscriber(ctx, "chat subscriber", onMessage, "chat:conv:*", "typing:conv:*")
}

// StartUserSubscriber subscribes to per-user notification channels.
func (n *Notifier) StartUserSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.startSubscriber(ctx, "user subscriber", onMessage, "notifications:user:*")
}

func (n *Notifier) startSubscriber(ctx context.Context, name string, onMessage func(channel, payload string), patterns ...string) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				// A panicking handler must not kill the subscriber loop.
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in pub/sub handler",
								"subscriber", name, "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ConversationChannel derives the Redis channel name for a conversation.
func ConversationChannel(conversationID uint) string {
	return "chat:conv:" + strconv.FormatUint(uint64(conversationID), 10)
}

func typingChannel(conversationID uint) string {
	return "typing:conv:" + strconv.FormatUint(uint64(conversationID), 10)
}

package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	PostKeyPrefix        = "post:%d"
	FeedKeyPrefix        = "feed:%d:%s:%d"
	StickerPackKeyPrefix = "pack:%d"
	ConversationPrefix   = "conv:%d:messages"
)

const (
	UserTTL        = 5 * time.Minute
	PostTTL        = 30 * time.Minute
	FeedTTL        = 1 * time.Minute
	StickerPackTTL = 10 * time.Minute
	MessagesTTL    = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// FeedKey identifies a cached feed page for a viewer, sort order and page.
func FeedKey(viewerID uint, sort string, page int) string {
	return fmt.Sprintf(FeedKeyPrefix, viewerID, sort, page)
}

func StickerPackKey(packID uint) string {
	return fmt.Sprintf(StickerPackKeyPrefix, packID)
}

func ConversationMessagesKey(conversationID uint) string {
	return fmt.Sprintf(ConversationPrefix, conversationID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateStickerPack(ctx context.Context, packID uint) {
	Invalidate(ctx, StickerPackKey(packID))
}

func InvalidateConversation(ctx context.Context, conversationID uint) {
	Invalidate(ctx, ConversationMessagesKey(conversationID))
}

// Package authz evaluates access-control predicates over domain entities.
//
// Predicates are pure functions over already-loaded rows plus the minimal
// relationship facts (is the viewer a follower, a current participant). The
// service layer is responsible for surfacing a denied read as not-found so
// existence never leaks through the API.
package authz

import (
	"time"

	"voidline/internal/models"
)

// CanReadPost reports whether viewerID may read the post.
// Public posts are readable by anyone, followers-only posts by the creator
// and their followers, private posts by the creator alone.
func CanReadPost(viewerID uint, post *models.Post, isFollower bool) bool {
	if post == nil {
		return false
	}
	if viewerID == post.CreatorID {
		return true
	}
	switch post.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFollowers:
		return viewerID != 0 && isFollower
	default: // private and anything unrecognized
		return false
	}
}

// CanWritePost reports whether viewerID may mutate (edit/delete) the post.
// Mutation is owner-only; moderators act through the moderation surface, not
// by impersonating owners.
func CanWritePost(viewerID uint, post *models.Post) bool {
	return post != nil && viewerID != 0 && viewerID == post.CreatorID
}

// CanReadVoidPost reports whether viewerID may read the void post at the
// given instant. Expiry always wins: an expired post is unreadable even by
// its creator, regardless of whether the sweep has reclaimed the row.
func CanReadVoidPost(viewerID uint, post *models.VoidPost, isFollower bool, now time.Time) bool {
	if post == nil || post.Expired(now) {
		return false
	}
	if viewerID == post.CreatorID {
		return true
	}
	return viewerID != 0 && isFollower
}

// CanWriteVoidPost reports whether viewerID may delete the void post early.
func CanWriteVoidPost(viewerID uint, post *models.VoidPost) bool {
	return post != nil && viewerID != 0 && viewerID == post.CreatorID
}

// CanReadConversation reports whether viewerID is a current participant.
// A departed participant (left_at set) fails this check and loses history.
func CanReadConversation(viewerID uint, isCurrentParticipant bool) bool {
	return viewerID != 0 && isCurrentParticipant
}

// CanReadStickerPack reports whether viewerID may see the pack's listing.
// Approved public packs are browsable by anyone; unapproved or non-public
// packs only by their creator.
func CanReadStickerPack(viewerID uint, pack *models.StickerPack) bool {
	if pack == nil {
		return false
	}
	if pack.IsPublic && pack.IsApproved {
		return true
	}
	return viewerID != 0 && viewerID == pack.CreatorID
}

// CanUseStickerPack reports whether viewerID may use the pack's stickers.
// Ownership is proven exclusively by a Purchase row; free packs still require
// the (auto-granted) row so the predicate has a single source of truth.
func CanUseStickerPack(viewerID uint, pack *models.StickerPack, hasPurchase bool) bool {
	if pack == nil || viewerID == 0 {
		return false
	}
	if viewerID == pack.CreatorID {
		return true
	}
	return hasPurchase
}

// CanModerate reports whether the user may access moderation surfaces.
func CanModerate(user *models.User) bool {
	return user != nil && user.Role.CanModerate()
}

// CanReadSaves reports whether viewerID may list the saves of ownerID.
// Saves are strictly private to their owner.
func CanReadSaves(viewerID, ownerID uint) bool {
	return viewerID != 0 && viewerID == ownerID
}

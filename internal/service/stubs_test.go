package service

import (
	"context"
	"time"

	"voidline/internal/models"
)

// Function-field stubs for the repository interfaces. Tests override only the
// fields they need; unset fields return zero values.

type stubUserRepo struct {
	GetByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	GetByEmailFn    func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	CreateFn        func(ctx context.Context, user *models.User) error
	UpdateFn        func(ctx context.Context, user *models.User) error
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return &models.User{ID: id}, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.GetByEmailFn != nil {
		return s.GetByEmailFn(ctx, email)
	}
	return nil, nil
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.GetByUsernameFn != nil {
		return s.GetByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) Delete(ctx context.Context, id uint) error { return nil }

func (s *stubUserRepo) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return nil, nil
}

func (s *stubUserRepo) AdjustWallet(ctx context.Context, userID uint, deltaCents int64) error {
	return nil
}

type stubFollowRepo struct {
	FollowFn       func(ctx context.Context, followerID, followingID uint) error
	UnfollowFn     func(ctx context.Context, followerID, followingID uint) error
	IsFollowingFn  func(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowingFn func(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
}

func (s *stubFollowRepo) Follow(ctx context.Context, followerID, followingID uint) error {
	if s.FollowFn != nil {
		return s.FollowFn(ctx, followerID, followingID)
	}
	return nil
}

func (s *stubFollowRepo) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if s.UnfollowFn != nil {
		return s.UnfollowFn(ctx, followerID, followingID)
	}
	return nil
}

func (s *stubFollowRepo) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	if s.IsFollowingFn != nil {
		return s.IsFollowingFn(ctx, followerID, followingID)
	}
	return false, nil
}

func (s *stubFollowRepo) GetFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return nil, nil
}

func (s *stubFollowRepo) GetFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if s.GetFollowingFn != nil {
		return s.GetFollowingFn(ctx, userID, limit, offset)
	}
	return nil, nil
}

type stubPostRepo struct {
	CreateFn  func(ctx context.Context, post *models.Post) error
	GetByIDFn func(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	LikeFn    func(ctx context.Context, userID, postID uint) error
	DeleteFn  func(ctx context.Context, id uint) error
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.Post) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, post)
	}
	return nil
}

func (s *stubPostRepo) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id, currentUserID)
	}
	return nil, models.NewNotFoundError("Post", id)
}

func (s *stubPostRepo) GetByCreatorID(ctx context.Context, creatorID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return nil, nil
}

func (s *stubPostRepo) ListFeed(ctx context.Context, currentUserID uint, limit, offset int, sort string) ([]*models.Post, error) {
	return nil, nil
}

func (s *stubPostRepo) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return nil, nil
}

func (s *stubPostRepo) Update(ctx context.Context, post *models.Post) error { return nil }

func (s *stubPostRepo) Delete(ctx context.Context, id uint) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return nil
}

func (s *stubPostRepo) Like(ctx context.Context, userID, postID uint) error {
	if s.LikeFn != nil {
		return s.LikeFn(ctx, userID, postID)
	}
	return nil
}

func (s *stubPostRepo) Unlike(ctx context.Context, userID, postID uint) error { return nil }
func (s *stubPostRepo) Save(ctx context.Context, userID, postID uint) error   { return nil }
func (s *stubPostRepo) Unsave(ctx context.Context, userID, postID uint) error { return nil }
func (s *stubPostRepo) Share(ctx context.Context, postID uint) error          { return nil }
func (s *stubPostRepo) RecomputeEngagement(ctx context.Context, postID uint) error {
	return nil
}

type stubCommentRepo struct {
	CreateFn  func(ctx context.Context, comment *models.Comment) error
	GetByIDFn func(ctx context.Context, id uint) (*models.Comment, error)
	DeleteFn  func(ctx context.Context, id uint) error
}

func (s *stubCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, comment)
	}
	return nil
}

func (s *stubCommentRepo) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, models.NewNotFoundError("Comment", id)
}

func (s *stubCommentRepo) GetByPostID(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return nil, nil
}

func (s *stubCommentRepo) Update(ctx context.Context, comment *models.Comment) error { return nil }

func (s *stubCommentRepo) Delete(ctx context.Context, id uint) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return nil
}

func (s *stubCommentRepo) Like(ctx context.Context, userID, commentID uint) error   { return nil }
func (s *stubCommentRepo) Unlike(ctx context.Context, userID, commentID uint) error { return nil }

type stubVoidRepo struct {
	CreateFn        func(ctx context.Context, post *models.VoidPost) error
	GetByIDFn       func(ctx context.Context, id uint, now time.Time) (*models.VoidPost, error)
	GetByCreatorFn  func(ctx context.Context, creatorID uint, now time.Time) ([]*models.VoidPost, error)
	ListVisibleFn   func(ctx context.Context, creatorIDs []uint, now time.Time) ([]*models.VoidPost, error)
	DeleteFn        func(ctx context.Context, id uint) error
	DeleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (s *stubVoidRepo) Create(ctx context.Context, post *models.VoidPost) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, post)
	}
	return nil
}

func (s *stubVoidRepo) GetByID(ctx context.Context, id uint, now time.Time) (*models.VoidPost, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id, now)
	}
	return nil, models.NewNotFoundError("VoidPost", id)
}

func (s *stubVoidRepo) GetByCreatorID(ctx context.Context, creatorID uint, now time.Time) ([]*models.VoidPost, error) {
	if s.GetByCreatorFn != nil {
		return s.GetByCreatorFn(ctx, creatorID, now)
	}
	return nil, nil
}

func (s *stubVoidRepo) ListVisible(ctx context.Context, creatorIDs []uint, now time.Time) ([]*models.VoidPost, error) {
	if s.ListVisibleFn != nil {
		return s.ListVisibleFn(ctx, creatorIDs, now)
	}
	return nil, nil
}

func (s *stubVoidRepo) Delete(ctx context.Context, id uint) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return nil
}

func (s *stubVoidRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if s.DeleteExpiredFn != nil {
		return s.DeleteExpiredFn(ctx, now)
	}
	return 0, nil
}

type stubChatRepo struct {
	CreateConversationFn   func(ctx context.Context, conv *models.Conversation, participantIDs []uint) error
	GetConversationFn      func(ctx context.Context, id uint) (*models.Conversation, error)
	IsCurrentParticipantFn func(ctx context.Context, convID, userID uint) (bool, error)
	CreateMessageFn        func(ctx context.Context, msg *models.Message) error
	GetMessageFn           func(ctx context.Context, id uint) (*models.Message, error)
	GetMessagesFn          func(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error)
	LeaveConversationFn    func(ctx context.Context, convID, userID uint) error
	AddParticipantFn       func(ctx context.Context, convID, userID uint) error
}

func (s *stubChatRepo) CreateConversation(ctx context.Context, conv *models.Conversation, participantIDs []uint) error {
	if s.CreateConversationFn != nil {
		return s.CreateConversationFn(ctx, conv, participantIDs)
	}
	conv.ID = 1
	return nil
}

func (s *stubChatRepo) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	if s.GetConversationFn != nil {
		return s.GetConversationFn(ctx, id)
	}
	return &models.Conversation{ID: id}, nil
}

func (s *stubChatRepo) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return nil, nil
}

func (s *stubChatRepo) IsCurrentParticipant(ctx context.Context, convID, userID uint) (bool, error) {
	if s.IsCurrentParticipantFn != nil {
		return s.IsCurrentParticipantFn(ctx, convID, userID)
	}
	return false, nil
}

func (s *stubChatRepo) AddParticipant(ctx context.Context, convID, userID uint) error {
	if s.AddParticipantFn != nil {
		return s.AddParticipantFn(ctx, convID, userID)
	}
	return nil
}

func (s *stubChatRepo) LeaveConversation(ctx context.Context, convID, userID uint) error {
	if s.LeaveConversationFn != nil {
		return s.LeaveConversationFn(ctx, convID, userID)
	}
	return nil
}

func (s *stubChatRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	if s.CreateMessageFn != nil {
		return s.CreateMessageFn(ctx, msg)
	}
	msg.ID = 1
	return nil
}

func (s *stubChatRepo) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	if s.GetMessageFn != nil {
		return s.GetMessageFn(ctx, id)
	}
	return nil, models.NewNotFoundError("Message", id)
}

func (s *stubChatRepo) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	if s.GetMessagesFn != nil {
		return s.GetMessagesFn(ctx, convID, limit, offset)
	}
	return nil, nil
}

func (s *stubChatRepo) MarkMessageRead(ctx context.Context, msgID uint) error { return nil }

func (s *stubChatRepo) UpdateLastRead(ctx context.Context, convID, userID uint) error { return nil }

func (s *stubChatRepo) AddReaction(ctx context.Context, reaction *models.MessageReaction) error {
	return nil
}

func (s *stubChatRepo) RemoveReaction(ctx context.Context, msgID, userID uint, emoji string) error {
	return nil
}

type stubStickerRepo struct {
	CreatePackFn     func(ctx context.Context, pack *models.StickerPack) error
	GetPackFn        func(ctx context.Context, id uint) (*models.StickerPack, error)
	UpdatePackFn     func(ctx context.Context, pack *models.StickerPack) error
	HasPurchaseFn    func(ctx context.Context, userID, packID uint) (bool, error)
	RecordPurchaseFn func(ctx context.Context, purchase *models.Purchase) (bool, error)
}

func (s *stubStickerRepo) CreatePack(ctx context.Context, pack *models.StickerPack) error {
	if s.CreatePackFn != nil {
		return s.CreatePackFn(ctx, pack)
	}
	pack.ID = 1
	return nil
}

func (s *stubStickerRepo) GetPack(ctx context.Context, id uint) (*models.StickerPack, error) {
	if s.GetPackFn != nil {
		return s.GetPackFn(ctx, id)
	}
	return nil, models.NewNotFoundError("StickerPack", id)
}

func (s *stubStickerRepo) ListPublicPacks(ctx context.Context, limit, offset int) ([]*models.StickerPack, error) {
	return nil, nil
}

func (s *stubStickerRepo) ListPacksByCreator(ctx context.Context, creatorID uint) ([]*models.StickerPack, error) {
	return nil, nil
}

func (s *stubStickerRepo) UpdatePack(ctx context.Context, pack *models.StickerPack) error {
	if s.UpdatePackFn != nil {
		return s.UpdatePackFn(ctx, pack)
	}
	return nil
}

func (s *stubStickerRepo) DeletePack(ctx context.Context, id uint) error { return nil }

func (s *stubStickerRepo) AddSticker(ctx context.Context, sticker *models.Sticker) error {
	return nil
}

func (s *stubStickerRepo) HasPurchase(ctx context.Context, userID, packID uint) (bool, error) {
	if s.HasPurchaseFn != nil {
		return s.HasPurchaseFn(ctx, userID, packID)
	}
	return false, nil
}

func (s *stubStickerRepo) RecordPurchase(ctx context.Context, purchase *models.Purchase) (bool, error) {
	if s.RecordPurchaseFn != nil {
		return s.RecordPurchaseFn(ctx, purchase)
	}
	return true, nil
}

func (s *stubStickerRepo) ListPurchases(ctx context.Context, userID uint) ([]*models.Purchase, error) {
	return nil, nil
}

func (s *stubStickerRepo) GetPurchaseByRef(ctx context.Context, paymentRef string) (*models.Purchase, error) {
	return nil, nil
}

type stubReportRepo struct {
	CreateFn       func(ctx context.Context, report *models.Report) error
	GetByIDFn      func(ctx context.Context, id uint) (*models.Report, error)
	ListFn         func(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.Report, error)
	UpdateStatusFn func(ctx context.Context, id uint, status models.ReportStatus, reviewerID uint) error
}

func (s *stubReportRepo) Create(ctx context.Context, report *models.Report) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, report)
	}
	report.ID = 1
	return nil
}

func (s *stubReportRepo) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return &models.Report{ID: id}, nil
}

func (s *stubReportRepo) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.Report, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, status, limit, offset)
	}
	return nil, nil
}

func (s *stubReportRepo) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, reviewerID uint) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, id, status, reviewerID)
	}
	return nil
}

func alwaysModerator(ctx context.Context, userID uint) (bool, error) { return true, nil }

func neverModerator(ctx context.Context, userID uint) (bool, error) { return false, nil }

package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"voidline/internal/models"
	"voidline/internal/observability"
	"voidline/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Seeder orchestrates demo-data generation on top of the Factory.
type Seeder struct {
	db       *gorm.DB
	factory  *Factory
	follows  repository.FollowRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	stickers repository.StickerRepository

	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:       db,
		factory:  NewFactory(db),
		follows:  repository.NewFollowRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		stickers: repository.NewStickerRepository(db),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll truncates every seeded table. Order matters for foreign keys.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []string{
		"message_reactions", "messages", "conversation_participants", "conversations",
		"purchases", "stickers", "sticker_packs",
		"reports", "comment_likes", "comments", "likes", "saves",
		"void_posts", "posts", "follows", "user_settings", "users",
	}
	for _, table := range tables {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	observability.Logger.Info("seed: cleared all tables")
	return nil
}

// SeedSocialMesh creates n users and a follow graph between them. One user in
// ten is private; the first user is promoted to moderator so the moderation
// surface is reachable out of the box.
func (s *Seeder) SeedSocialMesh(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		i := i
		user, err := s.factory.CreateUser(ctx, func(u *models.User) {
			if i == 0 {
				u.Role = models.RoleModerator
			}
			if s.rng.Intn(10) == 0 {
				u.IsPrivate = true
			}
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	// Each user follows a handful of others. The repository keeps
	// followers_count/following_count in step.
	for _, user := range users {
		for _, target := range s.pickOthers(users, user, 2+s.rng.Intn(6)) {
			if err := s.follows.Follow(ctx, user.ID, target.ID); err != nil {
				return nil, err
			}
		}
	}

	observability.Logger.Info("seed: social mesh created", "users", len(users))
	return users, nil
}

// SeedEngagement creates posts plus likes, comments, shares and saves, all
// through the repositories so engagement scores come out of the real
// recompute path.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, numPosts int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to seed posts for")
	}

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		creator := users[s.rng.Intn(len(users))]
		post, err := s.factory.CreatePost(ctx, creator)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	for _, post := range posts {
		for _, fan := range s.pickN(users, s.rng.Intn(8)) {
			if err := s.posts.Like(ctx, fan.ID, post.ID); err != nil {
				return nil, err
			}
		}
		for _, fan := range s.pickN(users, s.rng.Intn(3)) {
			comment := &models.Comment{
				UserID:  fan.ID,
				PostID:  post.ID,
				Content: gofakeit.Sentence(12),
			}
			if err := s.comments.Create(ctx, comment); err != nil {
				return nil, err
			}
		}
		for _, fan := range s.pickN(users, s.rng.Intn(2)) {
			if err := s.posts.Save(ctx, fan.ID, post.ID); err != nil {
				return nil, err
			}
		}
		if s.rng.Intn(5) == 0 {
			if err := s.posts.Share(ctx, post.ID); err != nil {
				return nil, err
			}
		}
	}

	observability.Logger.Info("seed: engagement created", "posts", len(posts))
	return posts, nil
}

// SeedVoid creates a few ephemeral posts per user.
func (s *Seeder) SeedVoid(ctx context.Context, users []*models.User) error {
	for _, user := range users {
		for i := 0; i < s.rng.Intn(3); i++ {
			if _, err := s.factory.CreateVoidPost(ctx, user); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedStickerMarket creates a mix of free and paid sticker packs with a few
// stickers each, and grants some free packs to random users.
func (s *Seeder) SeedStickerMarket(ctx context.Context, users []*models.User, numPacks int) error {
	for i := 0; i < numPacks; i++ {
		creator := users[s.rng.Intn(len(users))]
		price := int64(0)
		if s.rng.Intn(2) == 0 {
			price = int64(99 + s.rng.Intn(10)*100)
		}

		pack := &models.StickerPack{
			CreatorID:   creator.ID,
			Name:        gofakeit.HipsterWord() + " pack",
			Description: gofakeit.Sentence(6),
			CoverURL:    fmt.Sprintf("stickers/%d/%s.png", creator.ID, gofakeit.UUID()),
			Price:       price,
			IsPublic:    true,
			IsApproved:  price == 0 || s.rng.Intn(2) == 0,
		}
		if err := s.stickers.CreatePack(ctx, pack); err != nil {
			return err
		}

		for pos := 0; pos < 4+s.rng.Intn(8); pos++ {
			sticker := &models.Sticker{
				PackID:   pack.ID,
				ImageURL: fmt.Sprintf("stickers/%d/%s.png", creator.ID, gofakeit.UUID()),
				Position: pos,
			}
			if err := s.stickers.AddSticker(ctx, sticker); err != nil {
				return err
			}
		}

		if price == 0 {
			for _, owner := range s.pickN(users, s.rng.Intn(4)) {
				if _, err := s.stickers.RecordPurchase(ctx, &models.Purchase{
					UserID:     owner.ID,
					PackID:     pack.ID,
					Amount:     0,
					PaymentRef: models.FreePaymentRef,
				}); err != nil {
					return err
				}
			}
		}
	}

	observability.Logger.Info("seed: sticker market created", "packs", numPacks)
	return nil
}

// pickN returns up to n distinct random users.
func (s *Seeder) pickN(users []*models.User, n int) []*models.User {
	if n > len(users) {
		n = len(users)
	}
	perm := s.rng.Perm(len(users))
	picked := make([]*models.User, 0, n)
	for _, idx := range perm[:n] {
		picked = append(picked, users[idx])
	}
	return picked
}

// pickOthers returns up to n distinct random users excluding self.
func (s *Seeder) pickOthers(users []*models.User, self *models.User, n int) []*models.User {
	picked := make([]*models.User, 0, n)
	for _, u := range s.pickN(users, n+1) {
		if u.ID == self.ID {
			continue
		}
		if len(picked) == n {
			break
		}
		picked = append(picked, u)
	}
	return picked
}

// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"voidline/internal/models"
	"voidline/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them through the repositories,
// so every derived counter (followers, posts, engagement) stays consistent
// with the rows the seeder writes.
type Factory struct {
	db      *gorm.DB
	users   repository.UserRepository
	follows repository.FollowRepository
	posts   repository.PostRepository
	voids   repository.VoidPostRepository

	rng *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:      db,
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
		posts:   repository.NewPostRepository(db),
		voids:   repository.NewVoidPostRepository(db),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// seedPassword is the password every generated account gets.
const seedPassword = "password-seed-123"

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:       gofakeit.Email(),
		Password:    string(hashed),
		DisplayName: gofakeit.Name(),
		Bio:         gofakeit.Sentence(10),
		Avatar:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a sample post for the user. Visibility is mostly
// public with some follower-only and private rows mixed in.
func (f *Factory) CreatePost(ctx context.Context, creator *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		CreatorID:   creator.ID,
		Caption:     gofakeit.Sentence(8),
		ContentType: models.ContentTypeImage,
		MediaURL:    fmt.Sprintf("posts/%d/%s.jpg", creator.ID, gofakeit.UUID()),
		Visibility:  f.randomVisibility(),
	}
	if f.rng.Intn(4) == 0 {
		post.ContentType = models.ContentTypeText
		post.MediaURL = ""
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateVoidPost persists an ephemeral post with a random 6/12/24h window.
func (f *Factory) CreateVoidPost(ctx context.Context, creator *models.User) (*models.VoidPost, error) {
	durations := []int{6, 12, 24}
	hours := durations[f.rng.Intn(len(durations))]

	now := time.Now().UTC()
	post := &models.VoidPost{
		CreatorID:     creator.ID,
		ContentType:   models.ContentTypeImage,
		MediaURL:      fmt.Sprintf("void/%d/%s.jpg", creator.ID, gofakeit.UUID()),
		Caption:       gofakeit.Sentence(5),
		DurationHours: hours,
		ExpiresAt:     now.Add(time.Duration(hours) * time.Hour),
	}
	if err := f.voids.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (f *Factory) randomVisibility() models.Visibility {
	switch f.rng.Intn(10) {
	case 0:
		return models.VisibilityPrivate
	case 1, 2:
		return models.VisibilityFollowers
	default:
		return models.VisibilityPublic
	}
}

// Package seed creates demo and test data. Every row goes through the
// integrity engine, so seeded data obeys the same rules as real traffic.
// It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"sazon/internal/credential"
	"sazon/internal/integrity"
	"sazon/internal/models"
	"sazon/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "Password123"

// Options sizes a generated data set.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// RepliesPerComment is the number of replies added under each comment.
	RepliesPerComment int
	// Seed makes the generated content reproducible; 0 picks a random seed.
	Seed int64
}

func DefaultOptions() Options {
	return Options{Users: 10, PostsPerUser: 3, CommentsPerPost: 2, RepliesPerComment: 1}
}

// Summary counts what a seeding run created.
type Summary struct {
	Users     int `json:"users"`
	Posts     int `json:"posts"`
	Comments  int `json:"comments"`
	Reactions int `json:"reactions"`
	Media     int `json:"media"`
	Favorites int `json:"favorites"`
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d posts=%d comments=%d reactions=%d media=%d favorites=%d",
		s.Users, s.Posts, s.Comments, s.Reactions, s.Media, s.Favorites)
}

// Factory builds fake entities through the engine.
type Factory struct {
	engine *integrity.Engine
	faker  *gofakeit.Faker
	// hash is computed once; bcrypt per user would dominate a seeding run.
	hash string
}

func NewFactory(engine *integrity.Engine, hasher credential.Hasher, seed int64) (*Factory, error) {
	hash, err := hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash default password: %w", err)
	}
	return &Factory{engine: engine, faker: gofakeit.New(seed), hash: hash}, nil
}

var handleUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// User creates a user with a fake profile. n keeps handles unique.
func (f *Factory) User(ctx context.Context, n int) (*models.User, error) {
	base := handleUnsafe.ReplaceAllString(strings.ToLower(f.faker.Username()), "")
	if len(base) < 3 {
		base = "user"
	}
	handle := fmt.Sprintf("%s%d", base, n)
	if len(handle) > 30 {
		handle = handle[len(handle)-30:]
	}
	return f.engine.CreateUser(ctx, integrity.CreateUserInput{
		Email:          handle + "@example.com",
		Handle:         handle,
		CredentialHash: f.hash,
		FirstName:      f.faker.FirstName(),
		LastName:       f.faker.LastName(),
		SecondLastName: f.faker.LastName(),
		Phone:          f.faker.Phone(),
		Address:        truncate(f.faker.Street(), 150),
		AvatarURL:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", handle),
	})
}

func (f *Factory) Post(ctx context.Context, author *models.User) (*models.Post, error) {
	return f.engine.CreatePost(ctx, author.ID, integrity.CreatePostInput{
		Title:   truncate(strings.TrimSuffix(f.faker.Sentence(6), "."), 255),
		Body:    f.faker.Paragraph(2, 4, 10, "\n\n"),
		Publish: f.faker.Float32Range(0, 1) < 0.8,
	})
}

func (f *Factory) Comment(ctx context.Context, author *models.User, target models.Target) (*models.Comment, error) {
	return f.engine.CreateComment(ctx, author.ID, f.faker.Sentence(f.faker.IntRange(4, 16)), target)
}

func (f *Factory) Media(ctx context.Context, post *models.Post) (*models.Media, error) {
	url := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	return f.engine.AttachMedia(ctx, post.ID, url, models.MediaImage)
}

// Generate builds a connected data set: users, their posts with media,
// comments and replies from random users, reactions and favorites.
func Generate(ctx context.Context, f *Factory, opts Options) (*Summary, error) {
	var sum Summary
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.User(ctx, i+1)
		if err != nil {
			return &sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
		sum.Users++
	}
	if len(users) == 0 {
		return &sum, nil
	}

	pick := func() *models.User { return users[f.faker.IntRange(0, len(users)-1)] }

	for _, author := range users {
		for p := 0; p < opts.PostsPerUser; p++ {
			post, err := f.Post(ctx, author)
			if err != nil {
				return &sum, fmt.Errorf("create post: %w", err)
			}
			sum.Posts++

			if f.faker.Bool() {
				if _, err := f.Media(ctx, post); err != nil {
					return &sum, fmt.Errorf("attach media: %w", err)
				}
				sum.Media++
			}

			for c := 0; c < opts.CommentsPerPost; c++ {
				comment, err := f.Comment(ctx, pick(), models.PostTarget(post.ID))
				if err != nil {
					return &sum, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
				for r := 0; r < opts.RepliesPerComment; r++ {
					if _, err := f.Comment(ctx, pick(), models.CommentTarget(comment.ID)); err != nil {
						return &sum, fmt.Errorf("create reply: %w", err)
					}
					sum.Comments++
				}
				if err := f.react(ctx, users, models.CommentTarget(comment.ID), &sum); err != nil {
					return &sum, err
				}
			}

			if err := f.react(ctx, users, models.PostTarget(post.ID), &sum); err != nil {
				return &sum, err
			}
			if fan := pick(); fan.ID != author.ID {
				if _, err := f.engine.CreateFavorite(ctx, fan.ID, post.ID); err != nil {
					return &sum, fmt.Errorf("create favorite: %w", err)
				}
				sum.Favorites++
			}
		}
	}

	observability.Logger.InfoContext(ctx, "seed data generated", slog.String("summary", sum.String()))
	return &sum, nil
}

// react has a random subset of users react once each to target.
func (f *Factory) react(ctx context.Context, users []*models.User, target models.Target, sum *Summary) error {
	for _, u := range users {
		if f.faker.Float32Range(0, 1) > 0.4 {
			continue
		}
		kind := models.ReactionLike
		if f.faker.Float32Range(0, 1) < 0.2 {
			kind = models.ReactionDislike
		}
		if _, err := f.engine.CreateReaction(ctx, u.ID, kind, target); err != nil {
			return fmt.Errorf("create reaction: %w", err)
		}
		sum.Reactions++
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package integrity

import (
	"context"

	"sazon/internal/models"
	"sazon/internal/validation"
)

// Reads go straight to the store; nothing is cached between calls.

func (e *Engine) GetUser(ctx context.Context, id string) (*models.User, error) {
	return e.stores().Users.GetByID(ctx, id)
}

func (e *Engine) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return e.stores().Posts.GetByID(ctx, id)
}

func (e *Engine) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	return e.stores().Comments.GetByID(ctx, id)
}

// ListReplies returns the direct replies of a comment, oldest first.
func (e *Engine) ListReplies(ctx context.Context, commentID string) ([]*models.Comment, error) {
	if _, err := e.stores().Comments.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	return e.stores().Comments.ListReplies(ctx, commentID)
}

// ListPostComments returns the top-level comments of a post.
func (e *Engine) ListPostComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if _, err := e.stores().Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return e.stores().Comments.ListByPost(ctx, postID)
}

func (e *Engine) ListPostMedia(ctx context.Context, postID string) ([]*models.Media, error) {
	if _, err := e.stores().Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return e.stores().Media.ListByPost(ctx, postID)
}

func (e *Engine) ListUserPosts(ctx context.Context, userID string, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.stores().Posts.ListByAuthor(ctx, userID, limit, offset)
}

func (e *Engine) ReactionSummary(ctx context.Context, target models.Target) (models.ReactionSummary, error) {
	if err := validation.ValidateTarget(target); err != nil {
		return models.ReactionSummary{}, err
	}
	return e.stores().Reactions.Summary(ctx, target)
}

// Profile returns a user with the number of posts, comments and favorites
// it owns.
func (e *Engine) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	stores := e.stores()
	user, err := stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: *user}
	if profile.PostCount, err = stores.Posts.CountByAuthor(ctx, userID); err != nil {
		return nil, err
	}
	if profile.CommentCount, err = stores.Comments.CountByAuthor(ctx, userID); err != nil {
		return nil, err
	}
	if profile.FavoriteCount, err = stores.Favorites.CountByUser(ctx, userID); err != nil {
		return nil, err
	}
	return profile, nil
}

func (e *Engine) ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	if _, err := e.stores().Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return e.stores().Favorites.ListByUser(ctx, userID)
}

package integrity

import (
	"context"

	"sazon/internal/lifecycle"
	"sazon/internal/models"
	"sazon/internal/notifications"
	"sazon/internal/observability"
	"sazon/internal/repository"

	"gorm.io/gorm"
)

type DeleteOptions struct {
	// Hard cascades posts and comments instead of tombstoning them. Users,
	// reactions, media and favorites are always removed.
	Hard bool
}

// DeleteEntity removes ref. Deleting something that does not exist succeeds
// with an empty result.
func (e *Engine) DeleteEntity(ctx context.Context, ref models.EntityRef, opts DeleteOptions) (*lifecycle.Result, error) {
	var (
		result *lifecycle.Result
		owner  string
	)
	err := e.do(ctx, "delete_entity", refAttrs(ref.Kind, ref.ID), func(ctx context.Context) error {
		if !ref.Kind.Valid() {
			return models.NewValidationError("unknown entity kind " + string(ref.Kind))
		}
		return e.inTx(ctx, func(tx *gorm.DB, stores *repository.Stores) error {
			var err error
			owner, err = ownerOf(ctx, stores, ref)
			if err != nil {
				return err
			}
			if !opts.Hard && lifecycle.SupportsLogicalDelete(ref.Kind) {
				result, err = e.coordinator.LogicalDelete(ctx, tx, ref, e.clock())
				return err
			}
			result, err = e.coordinator.HardDelete(ctx, tx, ref)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	for kind, n := range result.Deleted {
		if n > 0 {
			observability.CascadeRowsDeleted.WithLabelValues(string(kind)).Observe(float64(n))
		}
	}
	if result.Changed {
		e.committed(ctx, "delete_entity", notifications.Event{
			Type:    notifications.EventDeleted,
			Kind:    ref.Kind,
			ID:      ref.ID,
			OwnerID: owner,
			Logical: result.Logical,
			Deleted: result.Deleted,
		})
	}
	return result, nil
}

// ownerOf returns the user that owns ref, or "" when ref is absent.
func ownerOf(ctx context.Context, stores *repository.Stores, ref models.EntityRef) (string, error) {
	var (
		owner string
		err   error
	)
	switch ref.Kind {
	case models.KindUser:
		owner = ref.ID
	case models.KindPost:
		var post *models.Post
		if post, err = stores.Posts.GetByID(ctx, ref.ID); err == nil {
			owner = post.AuthorID
		}
	case models.KindComment:
		var comment *models.Comment
		if comment, err = stores.Comments.GetByID(ctx, ref.ID); err == nil {
			owner = comment.AuthorID
		}
	case models.KindReaction:
		var reaction *models.Reaction
		if reaction, err = stores.Reactions.GetByID(ctx, ref.ID); err == nil {
			owner = reaction.UserID
		}
	case models.KindMedia:
		var m *models.Media
		if m, err = stores.Media.GetByID(ctx, ref.ID); err == nil {
			var post *models.Post
			if post, err = stores.Posts.GetByID(ctx, m.PostID); err == nil {
				owner = post.AuthorID
			}
		}
	case models.KindFavorite:
		var key models.FavoriteKey
		if key, err = models.ParseFavoriteKey(ref.ID); err != nil {
			return "", err
		}
		owner = key.UserID
	}
	if repository.IsNotFound(err) {
		return "", nil
	}
	return owner, err
}

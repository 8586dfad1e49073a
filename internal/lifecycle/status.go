package lifecycle

import (
	"context"
	"fmt"
	"time"

	"sazon/internal/models"
	"sazon/internal/repository"

	"gorm.io/gorm"
)

// SupportsLogicalDelete reports whether kind has a deleted status.
func SupportsLogicalDelete(kind models.EntityKind) bool {
	return kind == models.KindPost || kind == models.KindComment
}

// LogicalDelete flips a post or comment to deleted and scrubs its body.
// Dependents are left attached. Missing and already deleted rows are no-ops.
func (c *Coordinator) LogicalDelete(ctx context.Context, tx *gorm.DB, root models.EntityRef, now time.Time) (*Result, error) {
	stores := repository.NewStores(tx)

	switch root.Kind {
	case models.KindPost:
		post, err := stores.Posts.GetByID(ctx, root.ID)
		if repository.IsNotFound(err) {
			return newResult(root), nil
		}
		if err != nil {
			return nil, err
		}
		if post.IsDeleted() {
			return LogicalResult(root), nil
		}
		if !post.Status.CanTransition(models.PostDeleted) {
			return nil, models.NewInvalidTransitionError(string(post.Status), string(models.PostDeleted))
		}
		post.MarkDeleted(now)
		if err := stores.Posts.Update(ctx, post, "status", "body", "modified_at"); err != nil {
			return nil, err
		}

	case models.KindComment:
		comment, err := stores.Comments.GetByID(ctx, root.ID)
		if repository.IsNotFound(err) {
			return newResult(root), nil
		}
		if err != nil {
			return nil, err
		}
		if comment.IsDeleted() {
			return LogicalResult(root), nil
		}
		comment.MarkDeleted()
		if err := stores.Comments.Update(ctx, comment, "status", "body"); err != nil {
			return nil, err
		}

	default:
		return nil, models.NewValidationError(fmt.Sprintf("%s has no logical delete", root.Kind))
	}

	result := LogicalResult(root)
	result.Changed = true
	return result, nil
}

package repository

import (
	"context"

	"sazon/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines interface for reaction operations
type ReactionRepository interface {
	Create(ctx context.Context, reaction *models.Reaction) error
	GetByID(ctx context.Context, id string) (*models.Reaction, error)
	FindByUserAndTarget(ctx context.Context, userID string, target models.Target) (*models.Reaction, error)
	UpdateKind(ctx context.Context, reaction *models.Reaction) error
	Summary(ctx context.Context, target models.Target) (models.ReactionSummary, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// targetColumn is the column holding the target id; the order of the
// exclusive columns matches the unique indexes.
func targetColumn(target models.Target) string {
	if target.Kind() == models.TargetComment {
		return "comment_id"
	}
	return "post_id"
}

func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	err := r.db.WithContext(ctx).Create(reaction).Error
	return classifyWriteError(err, func() error {
		target, terr := reaction.Target()
		if terr != nil {
			return terr
		}
		return models.NewDuplicateReactionError(reaction.UserID, target)
	})
}

func (r *reactionRepository) GetByID(ctx context.Context, id string) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reaction).Error; err != nil {
		return nil, classifyReadError(err, "Reaction", id)
	}
	return &reaction, nil
}

func (r *reactionRepository) FindByUserAndTarget(ctx context.Context, userID string, target models.Target) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND "+targetColumn(target)+" = ?", userID, target.ID()).
		First(&reaction).Error
	if err != nil {
		return nil, classifyReadError(err, "Reaction", target.String())
	}
	return &reaction, nil
}

func (r *reactionRepository) UpdateKind(ctx context.Context, reaction *models.Reaction) error {
	res := r.db.WithContext(ctx).Model(reaction).Update("kind", reaction.Kind)
	if res.Error != nil {
		return classifyWriteError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reaction", reaction.ID)
	}
	return nil
}

func (r *reactionRepository) Summary(ctx context.Context, target models.Target) (models.ReactionSummary, error) {
	var rows []struct {
		Kind  models.ReactionKind
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("kind, COUNT(*) AS total").
		Where(targetColumn(target)+" = ?", target.ID()).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return models.ReactionSummary{}, models.NewInternalError(err)
	}

	var summary models.ReactionSummary
	for _, row := range rows {
		switch row.Kind {
		case models.ReactionLike:
			summary.Likes = row.Total
		case models.ReactionDislike:
			summary.Dislikes = row.Total
		}
	}
	return summary, nil
}

package repository

import (
	"context"

	"sazon/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository defines interface for favorite operations
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *models.Favorite) error
	Get(ctx context.Context, key models.FavoriteKey) (*models.Favorite, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new FavoriteRepository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	err := r.db.WithContext(ctx).Create(favorite).Error
	return classifyWriteError(err, func() error {
		return models.NewDuplicateFavoriteError(favorite.UserID, favorite.PostID)
	})
}

func (r *favoriteRepository) Get(ctx context.Context, key models.FavoriteKey) (*models.Favorite, error) {
	var favorite models.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", key.UserID, key.PostID).
		First(&favorite).Error
	if err != nil {
		return nil, classifyReadError(err, "Favorite", key.String())
	}
	return &favorite, nil
}

// ListByUser returns the user's saved posts, most recent first.
func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	var favorites []*models.Favorite
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("saved_at desc").Find(&favorites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return favorites, nil
}

func (r *favoriteRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

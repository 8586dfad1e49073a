package repository

import (
	"context"

	"sazon/internal/models"

	"gorm.io/gorm"
)

// MediaRepository defines interface for media operations
type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	GetByID(ctx context.Context, id string) (*models.Media, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Media, error)
	CountByURL(ctx context.Context, url string) (int64, error)
	Update(ctx context.Context, media *models.Media, fields ...string) error
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository creates a new MediaRepository
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *models.Media) error {
	return classifyWriteError(r.db.WithContext(ctx).Create(media).Error, nil)
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	var media models.Media
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&media).Error; err != nil {
		return nil, classifyReadError(err, "Media", id)
	}
	return &media, nil
}

func (r *mediaRepository) ListByPost(ctx context.Context, postID string) ([]*models.Media, error) {
	var items []*models.Media
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("uploaded_at asc").Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *mediaRepository) CountByURL(ctx context.Context, url string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Media{}).Where("url = ?", url).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *mediaRepository) Update(ctx context.Context, media *models.Media, fields ...string) error {
	res := r.db.WithContext(ctx).Model(media).Select(fields).Updates(media)
	if res.Error != nil {
		return classifyWriteError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Media", media.ID)
	}
	return nil
}

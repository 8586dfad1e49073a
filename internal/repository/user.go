// Package repository provides data access layer implementations for the application.
// Every repository wraps a *gorm.DB that may be a transaction handle.
package repository

import (
	"context"
	"errors"
	"strings"

	"sazon/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindConflict returns "email" or "handle" when another user already
	// holds the value, or "" when both are free.
	FindConflict(ctx context.Context, email, handle, excludeID string) (string, error)
	Update(ctx context.Context, user *models.User, fields ...string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func duplicateUser(err error) func() error {
	return func() error {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "handle"):
			return models.NewDuplicateUserError("handle")
		case strings.Contains(msg, "email"):
			return models.NewDuplicateUserError("email")
		}
		return models.NewDuplicateUserError("user")
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		return classifyWriteError(err, duplicateUser(err))
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, classifyReadError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, classifyReadError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) FindConflict(ctx context.Context, email, handle, excludeID string) (string, error) {
	var existing models.User
	q := r.db.WithContext(ctx).Where("(email = ? OR handle = ?)", email, handle)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Limit(1).Find(&existing).Error
	switch {
	case err != nil:
		return "", models.NewInternalError(err)
	case existing.ID == "":
		return "", nil
	case existing.Email == email:
		return "email", nil
	}
	return "handle", nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User, fields ...string) error {
	res := r.db.WithContext(ctx).Model(user).Select(fields).Updates(user)
	if res.Error != nil {
		return classifyWriteError(res.Error, duplicateUser(res.Error))
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	return nil
}

// IsNotFound reports whether err is a NOT_FOUND AppError.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/models"
)

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

// lockUser locks the user row for the rest of the transaction so balance
// checks of one user never overlap
func (r *Repository) lockUser(ctx context.Context, userID uuid.UUID) error {
	var user models.User
	err := forUpdate(r.db.WithContext(ctx)).Select("id").Where("id = ?", userID).First(&user).Error
	if err != nil {
		return notFound(err, apperr.ErrUserNotFound)
	}
	return nil
}

// FindUser returns the user or nil when there is none
func (r *Repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user row
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUserEmail keeps the mirrored e-mail in sync with the identity token
func (r *Repository) UpdateUserEmail(ctx context.Context, userID uuid.UUID, email string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("email", email).Error
}

// ListUsers returns users ordered by creation
func (r *Repository) ListUsers(ctx context.Context, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Limit(limit).Find(&users).Error
	return users, err
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
)

// CreateAppeal inserts an appeal. A second appeal by the same user on the
// same bet fails with ErrAlreadyAppealed.
func (r *Repository) CreateAppeal(ctx context.Context, appeal *models.Appeal) error {
	err := r.db.WithContext(ctx).Create(appeal).Error
	if database.IsDuplicate(err) {
		return apperr.ErrAlreadyAppealed
	}
	return wrap("create appeal", err)
}

// HasAppeal reports whether the user already appealed the bet
func (r *Repository) HasAppeal(ctx context.Context, betID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Appeal{}).
		Where("bet_id = ? AND user_id = ?", betID, userID).
		Count(&count).Error
	return count > 0, wrap("appeal lookup", err)
}

// ListAppeals returns one page of a user's appeals, newest first, with the
// appealed bet attached.
func (r *Repository) ListAppeals(
	ctx context.Context,
	userID uuid.UUID,
	status models.AppealStatus,
	limit int,
	offset int,
) ([]*models.Appeal, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Appeal{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap("count appeals", err)
	}

	var appeals []*models.Appeal
	err := query.
		Preload("Bet").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&appeals).Error
	if err != nil {
		return nil, 0, wrap("list appeals", err)
	}
	return appeals, total, nil
}

package repository

import (
	"context"
	"time"

	"focustrack_backend/internal/model"

	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	DB *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{DB: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *ActivityLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("created_at < ?", before).Delete(&model.ActivityLog{})
	return res.RowsAffected, res.Error
}

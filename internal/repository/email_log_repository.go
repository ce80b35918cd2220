package repository

import (
	"context"
	"time"

	"focustrack_backend/internal/model"

	"gorm.io/gorm"
)

type EmailLogRepository struct {
	DB *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) *EmailLogRepository {
	return &EmailLogRepository{DB: db}
}

func (r *EmailLogRepository) Create(ctx context.Context, log *model.EmailLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

// UpdateStatus 只更新状态相关字段
func (r *EmailLogRepository) UpdateStatus(ctx context.Context, log *model.EmailLog) error {
	return r.DB.WithContext(ctx).Model(log).
		Select("status", "sent_at", "error_message", "updated_at").
		Updates(log).Error
}

// ExistsSentSince 判断 since 之后是否已成功发送过该类型邮件
func (r *EmailLogRepository) ExistsSentSince(ctx context.Context, userID, emailType string, since time.Time) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.EmailLog{}).
		Where("user_id = ? AND email_type = ? AND status = ? AND sent_at >= ?",
			userID, emailType, model.EmailSent, since).
		Count(&count).Error
	return count > 0, err
}

func (r *EmailLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("created_at < ?", before).Delete(&model.EmailLog{})
	return res.RowsAffected, res.Error
}

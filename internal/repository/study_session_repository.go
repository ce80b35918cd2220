package repository

import (
	"context"
	"errors"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"

	"gorm.io/gorm"
)

type StudySessionRepository struct {
	DB *gorm.DB
}

func NewStudySessionRepository(db *gorm.DB) *StudySessionRepository {
	return &StudySessionRepository{DB: db}
}

func (r *StudySessionRepository) Create(ctx context.Context, s *model.StudySession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *StudySessionRepository) Update(ctx context.Context, s *model.StudySession) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *StudySessionRepository) FindByID(ctx context.Context, userID, id string) (*model.StudySession, error) {
	var s model.StudySession
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	return &s, err
}

// ListByRange 返回开始时间落在 [from, to] 内的学习记录
func (r *StudySessionRepository) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]model.StudySession, error) {
	var sessions []model.StudySession
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND start_time BETWEEN ? AND ?", userID, from, to).
		Order("start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *StudySessionRepository) ListByUser(ctx context.Context, userID string) ([]model.StudySession, error) {
	var sessions []model.StudySession
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("start_time ASC").Find(&sessions).Error
	return sessions, err
}

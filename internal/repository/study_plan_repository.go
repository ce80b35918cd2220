package repository

import (
	"context"
	"errors"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"

	"gorm.io/gorm"
)

type StudyPlanRepository struct {
	DB *gorm.DB
}

func NewStudyPlanRepository(db *gorm.DB) *StudyPlanRepository {
	return &StudyPlanRepository{DB: db}
}

func (r *StudyPlanRepository) Create(ctx context.Context, p *model.StudyPlan) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *StudyPlanRepository) Update(ctx context.Context, p *model.StudyPlan) error {
	return r.DB.WithContext(ctx).Omit("Course").Save(p).Error
}

func (r *StudyPlanRepository) FindByID(ctx context.Context, userID, id string) (*model.StudyPlan, error) {
	var p model.StudyPlan
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPlanNotFound
	}
	return &p, err
}

// ListByDateRange 按计划日期查询，日期按 YYYY-MM-DD 比较
func (r *StudyPlanRepository) ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]model.StudyPlan, error) {
	var plans []model.StudyPlan
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from.Format(util.DateFormat), to.Format(util.DateFormat)).
		Order("date ASC, start_time ASC").
		Find(&plans).Error
	return plans, err
}

func (r *StudyPlanRepository) CountByDate(ctx context.Context, userID string, date time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.StudyPlan{}).
		Where("user_id = ? AND date = ?", userID, date.Format(util.DateFormat)).
		Count(&count).Error
	return count, err
}

func (r *StudyPlanRepository) ListByUser(ctx context.Context, userID string) ([]model.StudyPlan, error) {
	var plans []model.StudyPlan
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("date ASC").Find(&plans).Error
	return plans, err
}

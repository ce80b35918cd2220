package repository

import (
	"context"
	"errors"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"

	"gorm.io/gorm"
)

type AcademicResultRepository struct {
	DB *gorm.DB
}

func NewAcademicResultRepository(db *gorm.DB) *AcademicResultRepository {
	return &AcademicResultRepository{DB: db}
}

func (r *AcademicResultRepository) Create(ctx context.Context, result *model.AcademicResult) error {
	return r.DB.WithContext(ctx).Omit("Course").Create(result).Error
}

func (r *AcademicResultRepository) FindByID(ctx context.Context, userID, id string) (*model.AcademicResult, error) {
	var result model.AcademicResult
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	return &result, err
}

// ListByUser 按日期升序返回成绩并预加载课程，semester 为空时返回全部
func (r *AcademicResultRepository) ListByUser(ctx context.Context, userID, semester string) ([]model.AcademicResult, error) {
	var results []model.AcademicResult
	query := r.DB.WithContext(ctx).
		Preload("Course", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID)
	if semester != "" {
		query = query.Where("semester = ?", semester)
	}
	err := query.Order("date ASC, created_at ASC").Find(&results).Error
	return results, err
}

func (r *AcademicResultRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.AcademicResult{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrResultNotFound
	}
	return nil
}

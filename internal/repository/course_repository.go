package repository

import (
	"context"
	"errors"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, userID, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return &course, err
}

func (r *CourseRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]model.Course, error) {
	var courses []model.Course
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("created_at ASC").Find(&courses).Error
	return courses, err
}

// FindByIDs 批量查询课程，包含已软删除的记录以便解析历史报告
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.Course, error) {
	out := make(map[string]model.Course, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var courses []model.Course
	if err := r.DB.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, err
	}
	for _, c := range courses {
		out[c.ID] = c
	}
	return out, nil
}

// DeleteCascade 在同一事务中删除课程及其计划、成绩和作业
func (r *CourseRepository) DeleteCascade(ctx context.Context, userID, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Course{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrCourseNotFound
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.StudyPlan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.AcademicResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.StudySession{}).
			Where("course_id = ?", id).
			Update("course_id", nil).Error
	})
}

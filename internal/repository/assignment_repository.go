package repository

import (
	"context"
	"time"

	"focustrack_backend/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// ListOverdueCandidates 截止时间已过但仍为 pending 的作业
func (r *AssignmentRepository) ListOverdueCandidates(ctx context.Context, now time.Time) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.DB.WithContext(ctx).
		Where("status = ? AND due_date < ?", model.AssignmentPending, now).
		Order("due_date ASC").
		Find(&list).Error
	return list, err
}

// MarkOverdue 条件更新，只有仍为 pending 的作业才会被修改
func (r *AssignmentRepository) MarkOverdue(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ? AND status = ?", id, model.AssignmentPending).
		Update("status", model.AssignmentOverdue)
	return res.RowsAffected == 1, res.Error
}

func (r *AssignmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("due_date ASC").Find(&list).Error
	return list, err
}

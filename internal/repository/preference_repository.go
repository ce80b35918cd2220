package repository

import (
	"context"
	"errors"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"

	"gorm.io/gorm"
)

type PreferenceRepository struct {
	DB *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{DB: db}
}

func (r *PreferenceRepository) FindByUserID(ctx context.Context, userID string) (*model.UserPreference, error) {
	var pref model.UserPreference
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPreferenceNotFound
	}
	return &pref, err
}

// Save 新建或整行更新，布尔字段的 false 也会写入
func (r *PreferenceRepository) Save(ctx context.Context, pref *model.UserPreference) error {
	if pref.ID == "" {
		return r.DB.WithContext(ctx).Select("*").Create(pref).Error
	}
	return r.DB.WithContext(ctx).Save(pref).Error
}

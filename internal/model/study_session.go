package model

import (
	"time"

	"gorm.io/gorm"
)

// StudySession 一次学习记录，Duration 由起止时间推导
type StudySession struct {
	UUIDBase
	UserID      string     `gorm:"type:varchar(36);index;not null" json:"user_id"`
	StudyPlanID *string    `gorm:"type:varchar(36);index" json:"study_plan_id"`
	CourseID    *string    `gorm:"type:varchar(36);index" json:"course_id"`
	StartTime   time.Time  `gorm:"index;not null" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Duration    *int       `json:"duration"` // 分钟
	Notes       string     `gorm:"type:text" json:"notes"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}

func (s *StudySession) BeforeSave(tx *gorm.DB) error {
	s.DeriveDuration()
	return nil
}

// DeriveDuration 根据起止时间重新计算时长，进行中的记录时长为空
func (s *StudySession) DeriveDuration() {
	if s.EndTime == nil || s.EndTime.Before(s.StartTime) {
		s.Duration = nil
		return
	}
	minutes := int(s.EndTime.Sub(s.StartTime) / time.Minute)
	s.Duration = &minutes
}

// Minutes 已结束记录的时长，进行中返回 0
func (s *StudySession) Minutes() int {
	if s.Duration == nil {
		return 0
	}
	return *s.Duration
}

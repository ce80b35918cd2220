package model

import (
	"time"

	"gorm.io/gorm"
)

type PlanStatus string

const (
	PlanPending    PlanStatus = "pending"
	PlanInProgress PlanStatus = "in-progress"
	PlanCompleted  PlanStatus = "completed"
	PlanMissed     PlanStatus = "missed"
)

type StudyPlan struct {
	SoftDeleteUUIDBase
	UserID          string     `gorm:"type:varchar(36);index:idx_study_plans_user_date,priority:1;not null" json:"user_id"`
	CourseID        string     `gorm:"type:varchar(36);index;not null" json:"course_id"`
	Course          *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Topic           string     `gorm:"size:255;not null" json:"topic"`
	Description     string     `gorm:"type:text" json:"description"`
	Date            time.Time  `gorm:"type:date;index:idx_study_plans_user_date,priority:2;not null" json:"date"`
	StartTime       string     `gorm:"size:5" json:"start_time"` // HH:MM
	PlannedDuration int        `gorm:"not null" json:"planned_duration"`
	ActualDuration  *int       `json:"actual_duration"`
	Priority        string     `gorm:"size:20;default:'medium'" json:"priority"`
	StudyType       string     `gorm:"size:50;default:'review'" json:"study_type"`
	Status          PlanStatus `gorm:"type:enum('pending','in-progress','completed','missed');default:'pending';index" json:"status"`
	CompletedAt     *time.Time `json:"completed_at"`
	Notes           string     `gorm:"type:text" json:"notes"`
}

func (StudyPlan) TableName() string {
	return "study_plans"
}

// BeforeSave 实际时长只在完成状态下保留
func (p *StudyPlan) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = PlanPending
	}
	if p.Status != PlanCompleted {
		p.ActualDuration = nil
		p.CompletedAt = nil
	}
	return nil
}

// Complete 将计划标记为已完成并记录实际时长
func (p *StudyPlan) Complete(actualMinutes int, at time.Time) {
	p.Status = PlanCompleted
	p.ActualDuration = &actualMinutes
	p.CompletedAt = &at
}

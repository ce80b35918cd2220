package model

import "time"

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentOverdue   AssignmentStatus = "overdue"
)

type Assignment struct {
	SoftDeleteUUIDBase
	UserID       string           `gorm:"type:varchar(36);index:idx_assignments_user_status,priority:1;not null" json:"user_id"`
	CourseID     string           `gorm:"type:varchar(36);index;not null" json:"course_id"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	DueDate      time.Time        `gorm:"index;not null" json:"due_date"`
	Priority     string           `gorm:"size:20;default:'medium'" json:"priority"`
	Status       AssignmentStatus `gorm:"size:20;default:'pending';index:idx_assignments_user_status,priority:2" json:"status"`
	CompletedAt  *time.Time       `json:"completed_at"`
	ReminderSent bool             `gorm:"default:false" json:"reminder_sent"`
	Notes        string           `gorm:"type:text" json:"notes"`
}

func (Assignment) TableName() string {
	return "assignments"
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityLog struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      *string        `gorm:"type:varchar(36);index" json:"user_id"`
	LogName     string         `gorm:"size:255" json:"log_name"`
	Description string         `gorm:"type:text;not null" json:"description"`
	SubjectType string         `gorm:"size:255" json:"subject_type"`
	SubjectID   *string        `gorm:"type:varchar(36)" json:"subject_id"`
	Event       string         `gorm:"size:255;index" json:"event"`
	Properties  datatypes.JSON `json:"properties,omitempty"`
	IPAddress   string         `gorm:"size:45" json:"ip_address"`
	UserAgent   string         `gorm:"type:text" json:"user_agent"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationReport     = "report"
	NotificationReminder   = "reminder"
	NotificationAssignment = "assignment"
	NotificationSystem     = "system"
)

type Notification struct {
	UUIDBase
	UserID    string         `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Type      string         `gorm:"size:50;not null" json:"type"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	ActionURL string         `gorm:"type:text" json:"action_url"`
	IsRead    bool           `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time     `json:"read_at"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

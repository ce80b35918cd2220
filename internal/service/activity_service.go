package service

import (
	"context"
	"encoding/json"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ActivityService 记录用户操作审计日志，写入失败不影响主流程
type ActivityService struct {
	repo ActivityLogRepository
}

func NewActivityService(repo ActivityLogRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// ActivityEntry 一条待记录的操作
type ActivityEntry struct {
	UserID      string
	Event       string
	SubjectType string
	SubjectID   string
	Description string
	Properties  map[string]interface{}
}

func (s *ActivityService) Record(ctx context.Context, e ActivityEntry) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &model.ActivityLog{
		LogName:     "default",
		Description: e.Description,
		SubjectType: e.SubjectType,
		Event:       e.Event,
	}
	if meta, ok := util.RequestMetaFrom(ctx); ok {
		entry.IPAddress = meta.IP
		entry.UserAgent = meta.UserAgent
	}
	if e.UserID != "" {
		entry.UserID = &e.UserID
	}
	if e.SubjectID != "" {
		entry.SubjectID = &e.SubjectID
	}
	if len(e.Properties) > 0 {
		if raw, err := json.Marshal(e.Properties); err == nil {
			entry.Properties = datatypes.JSON(raw)
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Log.Warn("Failed to record activity",
			zap.String("event", e.Event),
			zap.String("subject", e.SubjectType),
			zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

// 站内通知文案
const (
	reportReadyTitle      = "Weekly Report Ready"
	reportReadyMessage    = "Your weekly study report is ready!"
	reminderTitle         = "Study Plan Reminder"
	reminderMessage       = "Don't forget to set your study plan for tomorrow!"
	assignmentDueTitle    = "Assignment Overdue"
	assignmentDueTemplate = "Your assignment '%s' is now overdue."
)

const defaultNotificationLimit = 50

type NotificationService struct {
	repo  NotificationRepository
	clock util.Clock
}

func NewNotificationService(repo NotificationRepository, clock util.Clock) *NotificationService {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &NotificationService{repo: repo, clock: clock}
}

func (s *NotificationService) Notify(ctx context.Context, userID, notificationType, title, message, actionURL string) (*model.Notification, error) {
	n := &model.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		ActionURL: actionURL,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *NotificationService) NotifyReportReady(ctx context.Context, userID string) error {
	_, err := s.Notify(ctx, userID, model.NotificationReport, reportReadyTitle, reportReadyMessage, "/progress")
	return err
}

func (s *NotificationService) NotifyReminder(ctx context.Context, userID string) error {
	_, err := s.Notify(ctx, userID, model.NotificationReminder, reminderTitle, reminderMessage, "/planning")
	return err
}

func (s *NotificationService) NotifyAssignmentOverdue(ctx context.Context, a *model.Assignment) error {
	_, err := s.Notify(ctx, a.UserID, model.NotificationAssignment,
		assignmentDueTitle, fmt.Sprintf(assignmentDueTemplate, a.Title), "/assignments/"+a.ID)
	return err
}

// NotificationList 列表及未读数
type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int64                `json:"unread_count"`
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) (*NotificationList, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	list, unread, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return &NotificationList{Notifications: list, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id, s.clock.Now().UTC())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.clock.Now().UTC())
}

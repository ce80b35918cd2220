package service

import (
	"context"
	"strings"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

// gates 定时任务的发送条件，调度时和任务执行时各检查一次
type gates struct {
	plans         StudyPlanRepository
	emailLogs     EmailLogRepository
	notifications NotificationRepository
}

// localNow 用户时区下的当前时间，无效时区按 UTC 处理
func localNow(pref *model.UserPreference, now time.Time) time.Time {
	return now.In(util.LoadLocation(pref.Timezone))
}

// localDate 把本地日期转为 UTC 零点，用于按 DATE 列查询
func localDate(local time.Time) time.Time {
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (g *gates) morningDue(ctx context.Context, userID string, pref *model.UserPreference, now time.Time) (bool, error) {
	if !pref.EmailNotifications {
		return false, nil
	}
	local := localNow(pref, now)
	if !util.ReachedClock(local, pref.MorningEmailTime) {
		return false, nil
	}
	sent, err := g.emailLogs.ExistsSentSince(ctx, userID, model.EmailTypeMorningPlan, util.StartOfDay(local).UTC())
	if err != nil {
		return false, err
	}
	return !sent, nil
}

func (g *gates) reminderDue(ctx context.Context, userID string, pref *model.UserPreference, now time.Time) (bool, error) {
	if !pref.EmailNotifications && !pref.PushNotifications {
		return false, nil
	}
	local := localNow(pref, now)
	if !util.ReachedClock(local, pref.ReminderTime) {
		return false, nil
	}

	tomorrow := localDate(local).AddDate(0, 0, 1)
	count, err := g.plans.CountByDate(ctx, userID, tomorrow)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	since := util.StartOfDay(local).UTC()
	emailed, err := g.emailLogs.ExistsSentSince(ctx, userID, model.EmailTypeReminder, since)
	if err != nil || emailed {
		return false, err
	}
	notified, err := g.notifications.ExistsSince(ctx, userID, model.NotificationReminder, since)
	if err != nil {
		return false, err
	}
	return !notified, nil
}

func weeklyDue(pref *model.UserPreference, now time.Time) bool {
	if !pref.WeeklyReportEnabled {
		return false
	}
	return strings.EqualFold(localNow(pref, now).Weekday().String(), pref.WeeklyReportDay)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"focustrack_backend/internal/config"
	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/internal/worker"
	"focustrack_backend/pkg/logger"
	"focustrack_backend/pkg/monitoring"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 调度入口名称，同时用于命令行 -run-job
const (
	TickMorningEmails = "morning-emails"
	TickReminders     = "reminders"
	TickWeeklyReports = "weekly-reports"
	TickAssignments   = "assignments"
	TickCleanup       = "cleanup"
)

var ErrUnknownTick = errors.New("unknown scheduler job")

// Enqueuer worker.Queue 的写入端
type Enqueuer interface {
	Enqueue(ctx context.Context, job *worker.Job) error
}

type SchedulerService struct {
	gates
	users UserRepository
	queue Enqueuer
	clock util.Clock

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSchedulerService(users UserRepository, plans StudyPlanRepository, emailLogs EmailLogRepository,
	notifications NotificationRepository, queue Enqueuer, clock util.Clock) *SchedulerService {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &SchedulerService{
		gates: gates{
			plans:         plans,
			emailLogs:     emailLogs,
			notifications: notifications,
		},
		users: users,
		queue: queue,
		clock: clock,
	}
}

// Start 按配置注册 cron 任务，重复调用会替换旧的调度
func (s *SchedulerService) Start(cfg config.SchedulerConfig) error {
	loc := util.LoadLocation(cfg.Timezone)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	specs := []struct {
		name string
		spec string
	}{
		{TickMorningEmails, cfg.MorningSpec},
		{TickReminders, cfg.ReminderSpec},
		{TickWeeklyReports, cfg.WeeklySpec},
		{TickAssignments, cfg.AssignmentSpec},
		{TickCleanup, cfg.CleanupSpec},
	}
	for _, entry := range specs {
		if entry.spec == "" {
			continue
		}
		name := entry.name
		if _, err := c.AddFunc(entry.spec, func() { s.tick(name) }); err != nil {
			return fmt.Errorf("invalid cron spec %q for %s: %w", entry.spec, name, err)
		}
	}

	s.mu.Lock()
	old := s.cron
	s.cron = c
	s.mu.Unlock()

	if old != nil {
		<-old.Stop().Done()
	}
	c.Start()
	logger.Log.Info("Scheduler started", zap.String("timezone", loc.String()), zap.Int("entries", len(c.Entries())))
	return nil
}

func (s *SchedulerService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (s *SchedulerService) tick(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := s.RunByName(ctx, name)
	if err != nil {
		logger.Log.Error("Scheduler tick failed", zap.String("tick", name), zap.Int("enqueued", n), zap.Error(err))
		return
	}
	logger.Log.Debug("Scheduler tick finished", zap.String("tick", name), zap.Int("enqueued", n))
}

// RunByName 执行一次指定的调度入口，返回入队的任务数
func (s *SchedulerService) RunByName(ctx context.Context, name string) (int, error) {
	switch name {
	case TickMorningEmails:
		return s.RunMorningEmails(ctx)
	case TickReminders:
		return s.RunReminders(ctx)
	case TickWeeklyReports:
		return s.RunWeeklyReports(ctx)
	case TickAssignments:
		return s.RunAssignmentSweep(ctx)
	case TickCleanup:
		return s.RunCleanup(ctx)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownTick, name)
	}
}

// forEachUser 遍历有偏好记录的用户，单个用户出错不影响其他用户
func (s *SchedulerService) forEachUser(ctx context.Context, tick string, fn func(user *model.User, pref *model.UserPreference) (*worker.Job, error)) (int, error) {
	users, err := s.users.ListWithPreferences(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	enqueued := 0
	for i := range users {
		user := &users[i]
		if user.Preference == nil {
			continue
		}
		job, err := fn(user, user.Preference)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", user.ID, err))
			continue
		}
		if job == nil {
			continue
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s for %s: %w", job.Type, user.ID, err))
			continue
		}
		enqueued++
	}
	monitoring.SchedulerEnqueued.WithLabelValues(tick).Add(float64(enqueued))
	return enqueued, errors.Join(errs...)
}

func (s *SchedulerService) RunMorningEmails(ctx context.Context) (int, error) {
	now := s.clock.Now()
	return s.forEachUser(ctx, TickMorningEmails, func(user *model.User, pref *model.UserPreference) (*worker.Job, error) {
		due, err := s.morningDue(ctx, user.ID, pref, now)
		if err != nil || !due {
			return nil, err
		}
		return worker.NewJob(JobMorningEmail, user.ID, nil)
	})
}

func (s *SchedulerService) RunReminders(ctx context.Context) (int, error) {
	now := s.clock.Now()
	return s.forEachUser(ctx, TickReminders, func(user *model.User, pref *model.UserPreference) (*worker.Job, error) {
		due, err := s.reminderDue(ctx, user.ID, pref, now)
		if err != nil || !due {
			return nil, err
		}
		return worker.NewJob(JobReminder, user.ID, nil)
	})
}

// RunWeeklyReports 在用户设定的星期几生成上一周（周一至周日）的报告
func (s *SchedulerService) RunWeeklyReports(ctx context.Context) (int, error) {
	now := s.clock.Now()
	return s.forEachUser(ctx, TickWeeklyReports, func(user *model.User, pref *model.UserPreference) (*worker.Job, error) {
		if !weeklyDue(pref, now) {
			return nil, nil
		}
		weekStart := LastWeekStart(localNow(pref, now))
		return worker.NewJob(JobWeeklyReport, user.ID, WeeklyReportPayload{WeekStart: weekStart.Format(util.DateFormat)})
	})
}

func (s *SchedulerService) RunAssignmentSweep(ctx context.Context) (int, error) {
	return s.enqueueGlobal(ctx, TickAssignments, JobAssignmentSweep)
}

func (s *SchedulerService) RunCleanup(ctx context.Context) (int, error) {
	return s.enqueueGlobal(ctx, TickCleanup, JobCleanup)
}

func (s *SchedulerService) enqueueGlobal(ctx context.Context, tick, jobType string) (int, error) {
	job, err := worker.NewJob(jobType, "", nil)
	if err != nil {
		return 0, err
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	monitoring.SchedulerEnqueued.WithLabelValues(tick).Inc()
	return 1, nil
}

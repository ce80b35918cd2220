package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/pkg/mailer"
)

// 内存实现的仓储，仅用于测试

var errStore = errors.New("store unavailable")

type memUsers struct {
	users map[string]*model.User
	order []string
}

func newMemUsers(users ...*model.User) *memUsers {
	m := &memUsers{users: map[string]*model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
		m.order = append(m.order, u.ID)
	}
	return m
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) ListWithPreferences(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.users[id])
	}
	return out, nil
}

type memPreferences struct {
	prefs map[string]*model.UserPreference
	saves int
}

func newMemPreferences() *memPreferences {
	return &memPreferences{prefs: map[string]*model.UserPreference{}}
}

func (m *memPreferences) FindByUserID(ctx context.Context, userID string) (*model.UserPreference, error) {
	p, ok := m.prefs[userID]
	if !ok {
		return nil, util.ErrPreferenceNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPreferences) Save(ctx context.Context, pref *model.UserPreference) error {
	if pref.ID == "" {
		pref.ID = model.GenerateUUID()
	}
	cp := *pref
	m.prefs[pref.UserID] = &cp
	m.saves++
	return nil
}

type memCourses struct {
	courses map[string]model.Course
	deleted []string
}

func newMemCourses(courses ...model.Course) *memCourses {
	m := &memCourses{courses: map[string]model.Course{}}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

func (m *memCourses) Create(ctx context.Context, course *model.Course) error {
	if course.ID == "" {
		course.ID = model.GenerateUUID()
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memCourses) FindByID(ctx context.Context, userID, id string) (*model.Course, error) {
	c, ok := m.courses[id]
	if !ok || c.UserID != userID {
		return nil, util.ErrCourseNotFound
	}
	return &c, nil
}

func (m *memCourses) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range m.courses {
		if c.UserID == userID && (!activeOnly || c.IsActive) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCourses) FindByIDs(ctx context.Context, ids []string) (map[string]model.Course, error) {
	out := map[string]model.Course{}
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m *memCourses) DeleteCascade(ctx context.Context, userID, id string) error {
	c, ok := m.courses[id]
	if !ok || c.UserID != userID {
		return util.ErrCourseNotFound
	}
	delete(m.courses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memSessions struct {
	sessions []model.StudySession
	listed   int
}

func (m *memSessions) Create(ctx context.Context, s *model.StudySession) error {
	if s.ID == "" {
		s.ID = model.GenerateUUID()
	}
	s.DeriveDuration()
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *memSessions) Update(ctx context.Context, s *model.StudySession) error {
	for i := range m.sessions {
		if m.sessions[i].ID == s.ID {
			s.DeriveDuration()
			m.sessions[i] = *s
			return nil
		}
	}
	return util.ErrSessionNotFound
}

func (m *memSessions) FindByID(ctx context.Context, userID, id string) (*model.StudySession, error) {
	for _, s := range m.sessions {
		if s.ID == id && s.UserID == userID {
			cp := s
			return &cp, nil
		}
	}
	return nil, util.ErrSessionNotFound
}

func (m *memSessions) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]model.StudySession, error) {
	m.listed++
	out := []model.StudySession{}
	for _, s := range m.sessions {
		if s.UserID == userID && !s.StartTime.Before(from) && !s.StartTime.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) ListByUser(ctx context.Context, userID string) ([]model.StudySession, error) {
	out := []model.StudySession{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memPlans struct {
	plans  []model.StudyPlan
	listed int
}

func (m *memPlans) Create(ctx context.Context, p *model.StudyPlan) error {
	if p.ID == "" {
		p.ID = model.GenerateUUID()
	}
	cp := *p
	cp.Course = nil
	m.plans = append(m.plans, cp)
	return nil
}

func (m *memPlans) Update(ctx context.Context, p *model.StudyPlan) error {
	for i := range m.plans {
		if m.plans[i].ID == p.ID {
			m.plans[i] = *p
			return nil
		}
	}
	return util.ErrPlanNotFound
}

func (m *memPlans) FindByID(ctx context.Context, userID, id string) (*model.StudyPlan, error) {
	for _, p := range m.plans {
		if p.ID == id && p.UserID == userID {
			cp := p
			return &cp, nil
		}
	}
	return nil, util.ErrPlanNotFound
}

func (m *memPlans) ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]model.StudyPlan, error) {
	m.listed++
	fromDay, toDay := from.Format(util.DateFormat), to.Format(util.DateFormat)
	out := []model.StudyPlan{}
	for _, p := range m.plans {
		day := p.Date.Format(util.DateFormat)
		if p.UserID == userID && day >= fromDay && day <= toDay {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPlans) CountByDate(ctx context.Context, userID string, date time.Time) (int64, error) {
	var n int64
	for _, p := range m.plans {
		if p.UserID == userID && p.Date.Format(util.DateFormat) == date.Format(util.DateFormat) {
			n++
		}
	}
	return n, nil
}

func (m *memPlans) ListByUser(ctx context.Context, userID string) ([]model.StudyPlan, error) {
	out := []model.StudyPlan{}
	for _, p := range m.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memResults struct {
	results []model.AcademicResult
}

func (m *memResults) Create(ctx context.Context, r *model.AcademicResult) error {
	if r.ID == "" {
		r.ID = model.GenerateUUID()
	}
	m.results = append(m.results, *r)
	return nil
}

func (m *memResults) FindByID(ctx context.Context, userID, id string) (*model.AcademicResult, error) {
	for _, r := range m.results {
		if r.ID == id && r.UserID == userID {
			cp := r
			return &cp, nil
		}
	}
	return nil, util.ErrResultNotFound
}

func (m *memResults) ListByUser(ctx context.Context, userID, semester string) ([]model.AcademicResult, error) {
	out := []model.AcademicResult{}
	for _, r := range m.results {
		if r.UserID == userID && (semester == "" || r.Semester == semester) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memResults) Delete(ctx context.Context, userID, id string) error {
	for i, r := range m.results {
		if r.ID == id && r.UserID == userID {
			m.results = append(m.results[:i], m.results[i+1:]...)
			return nil
		}
	}
	return util.ErrResultNotFound
}

type memReports struct {
	mu      sync.Mutex
	reports map[string]*model.WeeklyReport
	upserts int
}

func newMemReports() *memReports {
	return &memReports{reports: map[string]*model.WeeklyReport{}}
}

func reportKey(userID string, weekStart time.Time) string {
	return userID + "|" + weekStart.Format(util.DateFormat)
}

func (m *memReports) FindByWeek(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[reportKey(userID, weekStart)]
	if !ok {
		return nil, util.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) Upsert(ctx context.Context, report *model.WeeklyReport) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	key := reportKey(report.UserID, report.WeekStartDate)
	if existing, ok := m.reports[key]; ok {
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
		report.EmailSentAt = existing.EmailSentAt
		report.GeneratedAt = existing.GeneratedAt
		cp := *report
		m.reports[key] = &cp
		return false, nil
	}
	report.ID = model.GenerateUUID()
	cp := *report
	m.reports[key] = &cp
	return true, nil
}

func (m *memReports) MarkEmailed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			t := at
			r.EmailSentAt = &t
			return nil
		}
	}
	return util.ErrReportNotFound
}

func (m *memReports) ListByUser(ctx context.Context, userID string) ([]model.WeeklyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.WeeklyReport{}
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memEmailLogs struct {
	mu      sync.Mutex
	logs    []*model.EmailLog
	deleted time.Time
}

func (m *memEmailLogs) Create(ctx context.Context, log *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.ID == "" {
		log.ID = model.GenerateUUID()
	}
	cp := *log
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memEmailLogs) UpdateStatus(ctx context.Context, log *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.ID == log.ID {
			l.Status = log.Status
			l.SentAt = log.SentAt
			l.ErrorMessage = log.ErrorMessage
			return nil
		}
	}
	return errStore
}

func (m *memEmailLogs) ExistsSentSince(ctx context.Context, userID, emailType string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.UserID != nil && *l.UserID == userID && l.EmailType == emailType &&
			l.Status == model.EmailSent && l.SentAt != nil && !l.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEmailLogs) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = before
	return 2, nil
}

func (m *memEmailLogs) byType(emailType string) []*model.EmailLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.EmailLog{}
	for _, l := range m.logs {
		if l.EmailType == emailType {
			out = append(out, l)
		}
	}
	return out
}

type memNotifications struct {
	mu      sync.Mutex
	items   []*model.Notification
	deleted time.Time
}

func (m *memNotifications) Create(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = model.GenerateUUID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memNotifications) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var unread int64
	out := []model.Notification{}
	for _, n := range m.items {
		if n.UserID != userID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if unreadOnly && n.IsRead {
			continue
		}
		if len(out) < limit {
			out = append(out, *n)
		}
	}
	return out, unread, nil
}

func (m *memNotifications) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			t := at
			n.ReadAt = &t
			return nil
		}
	}
	return util.ErrNotificationMissing
}

func (m *memNotifications) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			t := at
			item.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) ExistsSince(ctx context.Context, userID, notificationType string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.UserID == userID && n.Type == notificationType && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = before
	return 3, nil
}

func (m *memNotifications) byType(notificationType string) []*model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Notification{}
	for _, n := range m.items {
		if n.Type == notificationType {
			out = append(out, n)
		}
	}
	return out
}

type memAssignments struct {
	items []*model.Assignment
}

func (m *memAssignments) ListOverdueCandidates(ctx context.Context, now time.Time) ([]model.Assignment, error) {
	out := []model.Assignment{}
	for _, a := range m.items {
		if a.Status == model.AssignmentPending && a.DueDate.Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAssignments) MarkOverdue(ctx context.Context, id string) (bool, error) {
	for _, a := range m.items {
		if a.ID == id && a.Status == model.AssignmentPending {
			a.Status = model.AssignmentOverdue
			return true, nil
		}
	}
	return false, nil
}

func (m *memAssignments) ListByUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	out := []model.Assignment{}
	for _, a := range m.items {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type memActivity struct {
	entries []model.ActivityLog
	deleted time.Time
	fail    bool
}

func (m *memActivity) Create(ctx context.Context, entry *model.ActivityLog) error {
	if m.fail {
		return errStore
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memActivity) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	m.deleted = before
	return 5, nil
}

// fakeTransport 记录发送的邮件，err 非空时模拟发送失败
type fakeTransport struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (t *fakeTransport) Send(ctx context.Context, msg *mailer.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func date(s string) time.Time {
	t, err := util.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// endedSession 构造已结束的学习记录
func endedSession(userID, courseID string, start time.Time, minutes int) model.StudySession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	s := model.StudySession{UserID: userID, StartTime: start, EndTime: &end}
	s.ID = model.GenerateUUID()
	if courseID != "" {
		s.CourseID = util.StringPtr(courseID)
	}
	s.DeriveDuration()
	return s
}

func mkPlan(userID, courseID string, date time.Time, minutes int, status model.PlanStatus) model.StudyPlan {
	p := model.StudyPlan{UserID: userID, CourseID: courseID, Date: date, PlannedDuration: minutes, Status: status, Topic: "Topic"}
	p.ID = model.GenerateUUID()
	return p
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}

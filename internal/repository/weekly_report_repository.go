package repository

import (
	"context"
	"errors"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeeklyReportRepository struct {
	DB *gorm.DB
}

func NewWeeklyReportRepository(db *gorm.DB) *WeeklyReportRepository {
	return &WeeklyReportRepository{DB: db}
}

func (r *WeeklyReportRepository) FindByWeek(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyReport, error) {
	var report model.WeeklyReport
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", userID, weekStart.Format(util.DateFormat)).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrReportNotFound
	}
	return &report, err
}

// Upsert 以 (user_id, week_start_date) 为键写入报告，返回是否为新建
// 已存在的报告保留原 id、generated_at 与 email_sent_at
func (r *WeeklyReportRepository) Upsert(ctx context.Context, report *model.WeeklyReport) (bool, error) {
	created := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		week := report.WeekStartDate.Format(util.DateFormat)

		var existing model.WeeklyReport
		err := tx.Where("user_id = ? AND week_start_date = ?", report.UserID, week).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return err
		default:
			report.ID = existing.ID
			report.CreatedAt = existing.CreatedAt
			report.EmailSentAt = existing.EmailSentAt
			if !existing.GeneratedAt.IsZero() {
				report.GeneratedAt = existing.GeneratedAt
			}
		}

		// 并发生成同一周报告时由唯一索引兜底
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "week_start_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"week_end_date", "total_study_hours", "planned_hours", "completion_rate",
				"most_studied_course_id", "least_studied_course_id", "performance_trend",
				"ai_insights", "report_data", "generated_at", "updated_at",
			}),
		}).Create(report).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ? AND week_start_date = ?", report.UserID, week).First(report).Error
	})
	return created, err
}

func (r *WeeklyReportRepository) MarkEmailed(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.WeeklyReport{}).
		Where("id = ?", id).
		Update("email_sent_at", at).Error
}

func (r *WeeklyReportRepository) ListByUser(ctx context.Context, userID string) ([]model.WeeklyReport, error) {
	var reports []model.WeeklyReport
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("week_start_date DESC").Find(&reports).Error
	return reports, err
}

// 手动回填周报脚本
//
// 定时任务只生成上一周的周报。首次部署或导入历史学习记录后，
// 可用此脚本为所有用户补齐最近若干周的周报（不发送邮件）。
//
// 用法: go run scripts/backfill_weekly_reports.go -weeks 8

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"focustrack_backend/internal/config"
	"focustrack_backend/internal/repository"
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"
	"focustrack_backend/pkg/database"
	"focustrack_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	weeks := flag.Int("weeks", 4, "回填的周数（不含本周）")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	clock := util.RealClock{}
	courses := repository.NewCourseRepository(db)
	analytics := service.NewAnalyticsService(
		repository.NewStudySessionRepository(db),
		repository.NewStudyPlanRepository(db),
		courses,
		clock,
	)
	reports := service.NewWeeklyReportService(analytics, repository.NewWeeklyReportRepository(db), courses, clock)

	ctx := context.Background()
	users, err := repository.NewUserRepository(db).ListWithPreferences(ctx)
	if err != nil {
		log.Fatalf("读取用户失败: %v", err)
	}

	current := util.StartOfWeek(time.Now().UTC())
	generated := 0
	for _, user := range users {
		// 从最早的一周开始，保证趋势对比时上一周已存在
		for i := *weeks; i >= 1; i-- {
			weekStart := current.AddDate(0, 0, -7*i)
			if _, _, err := reports.GenerateWeeklyReport(ctx, user.ID, weekStart); err != nil {
				logger.Log.Error("Backfill weekly report failed",
					zap.String("user_id", user.ID),
					zap.String("week_start", weekStart.Format(util.DateFormat)),
					zap.Error(err))
				continue
			}
			generated++
		}
	}

	log.Printf("周报回填完成：%d 位用户，共 %d 份", len(users), generated)
}

// @title FocusTrack 后端 API
// @version 1.0
// @description FocusTrack 学习进度跟踪服务：周报、GPA 趋势、学习计划与通知。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"focustrack_backend/internal/app"
	"focustrack_backend/internal/config"
	"focustrack_backend/pkg/logger"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	runJob := flag.String("run-job", "", "执行一次定时任务后退出：morning-emails | reminders | weekly-reports | assignments | cleanup")
	flag.Parse()

	cfg, err := config.LoadConfig(app.ConfigDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	if *runJob != "" {
		if err := app.RunJob(cfg, *runJob); err != nil {
			log.Fatalf("Job %s failed: %v", *runJob, err)
		}
		return
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}

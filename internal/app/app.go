package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focustrack_backend/internal/config"
	"focustrack_backend/internal/controller"
	"focustrack_backend/internal/middleware"
	"focustrack_backend/internal/repository"
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"
	"focustrack_backend/internal/worker"
	"focustrack_backend/pkg/configwatcher"
	"focustrack_backend/pkg/database"
	"focustrack_backend/pkg/logger"
	"focustrack_backend/pkg/mailer"
	"focustrack_backend/pkg/monitoring"
	"focustrack_backend/pkg/security"
	"focustrack_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigDir 配置文件所在目录，热更新监听该目录下的 config.yaml
const ConfigDir = "configs"

// 命令行单次执行时内存队列的容量
const runJobQueueSize = 100000

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Queue  worker.Queue
	Pool   *worker.Pool

	services        *services
	tracer          *sdktrace.TracerProvider
	limiter         *security.Limiter
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	preference   *repository.PreferenceRepository
	course       *repository.CourseRepository
	session      *repository.StudySessionRepository
	plan         *repository.StudyPlanRepository
	result       *repository.AcademicResultRepository
	assignment   *repository.AssignmentRepository
	weeklyReport *repository.WeeklyReportRepository
	emailLog     *repository.EmailLogRepository
	notification *repository.NotificationRepository
	activityLog  *repository.ActivityLogRepository
}

type services struct {
	clock        util.Clock
	activity     *service.ActivityService
	storage      *service.StorageService
	course       *service.CourseService
	plan         *service.PlanService
	session      *service.SessionService
	analytics    *service.AnalyticsService
	weeklyReport *service.WeeklyReportService
	performance  *service.PerformanceService
	email        *service.EmailService
	notification *service.NotificationService
	settings     *service.SettingsService
	jobs         *service.JobService
	scheduler    *service.SchedulerService
}

type controllers struct {
	progress     *controller.ProgressController
	performance  *controller.PerformanceController
	session      *controller.SessionController
	plan         *controller.PlanController
	course       *controller.CourseController
	settings     *controller.SettingsController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		preference:   repository.NewPreferenceRepository(db),
		course:       repository.NewCourseRepository(db),
		session:      repository.NewStudySessionRepository(db),
		plan:         repository.NewStudyPlanRepository(db),
		result:       repository.NewAcademicResultRepository(db),
		assignment:   repository.NewAssignmentRepository(db),
		weeklyReport: repository.NewWeeklyReportRepository(db),
		emailLog:     repository.NewEmailLogRepository(db),
		notification: repository.NewNotificationRepository(db),
		activityLog:  repository.NewActivityLogRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) (*services, error) {
	clock := util.RealClock{}

	transport, err := mailer.New(cfg.Mail, logger.Log)
	if err != nil {
		return nil, err
	}

	s := &services{clock: clock}
	s.activity = service.NewActivityService(repos.activityLog)
	s.storage = service.NewStorageService(cfg)
	s.course = service.NewCourseService(repos.course, s.activity)
	s.plan = service.NewPlanService(repos.plan, repos.course, s.activity, clock)
	s.session = service.NewSessionService(repos.session, repos.plan, repos.course, s.activity, clock)
	s.analytics = service.NewAnalyticsService(repos.session, repos.plan, repos.course, clock)
	s.weeklyReport = service.NewWeeklyReportService(s.analytics, repos.weeklyReport, repos.course, clock)
	s.performance = service.NewPerformanceService(repos.result, repos.course)
	s.notification = service.NewNotificationService(repos.notification, clock)

	s.email, err = service.NewEmailService(transport, repos.emailLog, cfg.App.Name, cfg.App.URL, clock)
	if err != nil {
		return nil, err
	}

	s.settings = service.NewSettingsService(service.SettingsDeps{
		Users:       repos.user,
		Preferences: repos.preference,
		Courses:     repos.course,
		Sessions:    repos.session,
		Plans:       repos.plan,
		Results:     repos.result,
		Assignments: repos.assignment,
		Reports:     repos.weeklyReport,
		Storage:     s.storage,
		Activity:    s.activity,
		Clock:       clock,
	})

	s.jobs = service.NewJobService(service.JobDeps{
		Users:         repos.user,
		Plans:         repos.plan,
		EmailLogs:     repos.emailLog,
		Notifications: repos.notification,
		Assignments:   repos.assignment,
		Activity:      repos.activityLog,
		Email:         s.email,
		Reports:       s.weeklyReport,
		Notifier:      s.notification,
		Clock:         clock,
	})

	s.scheduler = service.NewSchedulerService(repos.user, repos.plan, repos.emailLog, repos.notification, a.Queue, clock)
	return s, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		progress:     controller.NewProgressController(s.weeklyReport, s.analytics, s.clock),
		performance:  controller.NewPerformanceController(s.performance, s.clock),
		session:      controller.NewSessionController(s.session),
		plan:         controller.NewPlanController(s.plan, s.clock),
		course:       controller.NewCourseController(s.course),
		settings:     controller.NewSettingsController(s.settings),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(a.DB, a.Redis),
	}
}

// initWorker 构建任务池并注册处理函数，永久失败写入审计日志
func (a *App) initWorker(cfg *config.Config, concurrency int) {
	policy := worker.RetryPolicy{
		MaxAttempts: cfg.Worker.MaxAttempts,
		Backoff:     cfg.Worker.Backoff(),
	}
	a.Pool = worker.NewPool(a.Queue, policy, concurrency, logger.Log.Named("worker"))
	a.services.jobs.Register(a.Pool)

	activity := a.services.activity
	a.Pool.OnPermanentFailure(func(job *worker.Job, err error) {
		activity.Record(context.Background(), service.ActivityEntry{
			UserID:      job.UserID,
			Event:       "failed",
			SubjectType: "job",
			SubjectID:   job.ID,
			Description: "Background job failed permanently",
			Properties: map[string]interface{}{
				"type":     job.Type,
				"attempts": job.Attempt,
				"error":    err.Error(),
			},
		})
	})
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
		"/api/health", "/metrics")
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.RequestMetaMiddleware())
}

// openQueue memory 队列仅适用于单实例部署
func (a *App) openQueue(cfg *config.Config) error {
	if cfg.Worker.Queue == "memory" {
		a.Queue = worker.NewMemoryQueue(0)
		return nil
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return err
	}
	a.Redis = rdb
	a.Queue = worker.NewRedisQueue(rdb, worker.DefaultQueueKey)
	return nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if err := app.openQueue(cfg); err != nil {
		logger.Log.Fatal("Failed to initialize job queue", zap.Error(err))
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	app.initWorker(cfg, cfg.Worker.Concurrency)
	controllers := app.initControllers(services)

	if err := middleware.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("focustrack", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	scheduler := services.scheduler
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if !newCfg.Scheduler.Enabled {
			scheduler.Stop()
			return
		}
		if err := scheduler.Start(newCfg.Scheduler); err != nil {
			logger.Log.Error("Failed to reload scheduler", zap.Error(err))
		}
	})
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.Level.SetLevel(logger.ParseLevel(newCfg))
	})

	return app
}

func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Pool.Start(ctx)

	if a.Config.Scheduler.Enabled {
		if err := a.services.scheduler.Start(a.Config.Scheduler); err != nil {
			logger.Log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	if a.limiter != nil {
		a.limiter.StartSweeper(ctx.Done())
	}

	go func() {
		if err := configwatcher.WatchConfig(ctx, ConfigDir, configwatcher.DefaultDebounce, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.services.scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	cancel()
	a.Pool.Stop()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}

// RunJob 执行一次指定的定时任务并在内存队列中同步处理完，供外部 cron 调用
func RunJob(cfg *config.Config, name string) error {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	monitoring.Init()

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	queue := worker.NewMemoryQueue(runJobQueueSize)
	app := &App{Config: cfg, DB: db, Queue: queue}

	services, err := app.initServices(app.initRepositories(db), cfg)
	if err != nil {
		return err
	}
	app.services = services
	app.initWorker(cfg, 1)

	ctx := context.Background()
	enqueued, tickErr := services.scheduler.RunByName(ctx, name)
	if errors.Is(tickErr, service.ErrUnknownTick) {
		return tickErr
	}
	logger.Log.Info("Job tick enqueued", zap.String("tick", name), zap.Int("jobs", enqueued))

	if err := app.Pool.Drain(ctx, queue); err != nil {
		return fmt.Errorf("drain jobs: %w", err)
	}
	logger.Log.Info("Job tick finished", zap.String("tick", name))
	return tickErr
}

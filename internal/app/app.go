package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/controller"
	"uplook_backend/internal/middleware"
	"uplook_backend/internal/repository"
	"uplook_backend/internal/scheduler"
	"uplook_backend/internal/service"
	"uplook_backend/pkg/configwatcher"
	"uplook_backend/pkg/database"
	"uplook_backend/pkg/logger"
	"uplook_backend/pkg/monitoring"
	"uplook_backend/pkg/security"
	"uplook_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigDir 配置文件目录，热加载监听其中的 config.yaml
const ConfigDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *scheduler.Scheduler
	tracer          *sdktrace.TracerProvider
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	goal      *repository.GoalRepository
	content   *repository.ContentRepository
	activity  *repository.ActivityRepository
	journal   *repository.JournalRepository
	mood      *repository.MoodRepository
	badge     *repository.BadgeRepository
	plan      *repository.PlanRepository
	chat      *repository.ChatRepository
	analytics *repository.AnalyticsRepository
	popular   *repository.PopularityCache
}

type services struct {
	auth           *service.AuthService
	user           *service.UserService
	storage        *service.StorageService
	content        *service.ContentService
	ai             *service.AIService
	journal        *service.JournalService
	mood           *service.MoodService
	wellness       *service.WellnessService
	recommendation *service.RecommendationService
	badge          *service.BadgeService
	streak         *service.StreakService
	activity       *service.ActivityService
	agenda         *service.AgendaService
	plan           *service.PlanService
	analytics      *service.AnalyticsService
	chat           *service.ChatService
	chatHub        *service.ChatHub
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	content  *controller.ContentController
	activity *controller.ActivityController
	journal  *controller.JournalController
	mood     *controller.MoodController
	wellness *controller.WellnessController
	streak   *controller.StreakController
	plan     *controller.PlanController
	home     *controller.HomeController
	chat     *controller.ChatController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	r := &repositories{
		user:      repository.NewUserRepository(db),
		goal:      repository.NewGoalRepository(db),
		content:   repository.NewContentRepository(db),
		activity:  repository.NewActivityRepository(db),
		journal:   repository.NewJournalRepository(db),
		mood:      repository.NewMoodRepository(db),
		badge:     repository.NewBadgeRepository(db),
		plan:      repository.NewPlanRepository(db),
		chat:      repository.NewChatRepository(db),
		analytics: repository.NewAnalyticsRepository(db),
	}
	r.popular = repository.NewPopularityCache(rdb, r.activity, cfg.Personalization.PopularCacheTTL)
	return r
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, repos.goal)

	s.storage = service.NewStorageService(&cfg.Storage)
	s.content = service.NewContentService(repos.content, s.storage, repos.popular, filepath.Join(os.TempDir(), "uplook-media"))

	s.ai = service.NewAIService(cfg.AI)
	s.journal = service.NewJournalService(repos.journal, s.ai)
	s.mood = service.NewMoodService(repos.mood)
	s.wellness = service.NewWellnessService(repos.journal, repos.mood)

	s.recommendation = service.NewRecommendationService(
		repos.content,
		repos.activity,
		repos.popular,
		repos.goal,
		repos.journal,
		s.wellness,
		cfg.Personalization,
		nil,
	)
	a.RegisterConfigCallback(func(c *config.Config) {
		s.recommendation.UpdateConfig(c.Personalization)
	})

	s.badge = service.NewBadgeService(repos.badge, repos.activity, cfg.Personalization.CountBadgeRules)
	s.streak = service.NewStreakService(repos.user)
	s.activity = service.NewActivityService(repos.activity, repos.content, s.streak, s.badge)
	s.agenda = service.NewAgendaService(repos.user, s.wellness, s.recommendation, repos.activity)
	s.plan = service.NewPlanService(repos.plan, cfg.Personalization.DueCardLimit)
	s.analytics = service.NewAnalyticsService(repos.analytics)

	s.chat = service.NewChatService(repos.chat)
	s.chatHub = service.NewChatHub(rdb, s.chat)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user),
		content:  controller.NewContentController(s.content),
		activity: controller.NewActivityController(s.activity),
		journal:  controller.NewJournalController(s.journal),
		mood:     controller.NewMoodController(s.mood),
		wellness: controller.NewWellnessController(s.wellness, s.recommendation),
		streak:   controller.NewStreakController(s.streak, s.badge),
		plan:     controller.NewPlanController(s.plan),
		home:     controller.NewHomeController(s.agenda),
		chat:     controller.NewChatController(s.chat, s.user, s.chatHub),
		admin:    controller.NewAdminController(s.badge, s.analytics),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure(cfg.Server.Mode == gin.ReleaseMode))
	router.Use(security.RateLimiter(ctx, cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go s.chatHub.Run(ctx)

	a.scheduler = scheduler.New(a.Config.Jobs, s.journal, s.streak)
	if err := a.scheduler.Start(); err != nil {
		logger.Log.Error("Failed to start scheduler", zap.Error(err))
	}

	go func() {
		err := configwatcher.WatchConfig(filepath.Join(ConfigDir, "config.yaml"), a.reloadConfig, ctx.Done())
		if err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode != gin.ReleaseMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不自动迁移，需要显式 --migrate
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	// redis 只承载热门缓存和聊天扇出，连不上时降级为单机模式
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, running without cache and chat fan-out", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	if err := controller.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.setupMiddlewares(ctx, router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
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

	a.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
	_ = logger.Log.Sync()
}

// Shutdown 停止定时任务、聊天连接和配置监听
func (a *App) Shutdown() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.services != nil && a.services.chatHub != nil {
		a.services.chatHub.Stop()
	}
}

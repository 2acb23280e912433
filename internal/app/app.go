package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testgen_backend/internal/config"
	"testgen_backend/internal/controller"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/service"
	"testgen_backend/pkg/configwatcher"
	"testgen_backend/pkg/database"
	"testgen_backend/pkg/logger"
	"testgen_backend/pkg/monitoring"
	"testgen_backend/pkg/security"
	"testgen_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Policy          *security.Policy
	Services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	role       *repository.RoleRepository
	group      *repository.GroupRepository
	document   *repository.DocumentRepository
	question   *repository.QuestionRepository
	test       *repository.TestRepository
	assignment *repository.AssignmentRepository
	session    *repository.SessionRepository
	audit      *repository.AuditRepository
	stats      *repository.StatsRepository
}

type services struct {
	Audit      *service.AuditService
	Auth       *service.AuthService
	User       *service.UserService
	Role       *service.RoleService
	Group      *service.GroupService
	Storage    *service.StorageService
	Document   *service.DocumentService
	Question   *service.QuestionService
	Moodle     *service.MoodleService
	Test       *service.TestService
	Assignment *service.AssignmentService
	Session    *service.SessionService
	Stats      *service.StatsService
	Seed       *service.SeedService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	role       *controller.RoleController
	group      *controller.GroupController
	document   *controller.DocumentController
	question   *controller.QuestionController
	moodle     *controller.MoodleController
	test       *controller.TestController
	assignment *controller.AssignmentController
	session    *controller.SessionController
	audit      *controller.AuditController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		role:       repository.NewRoleRepository(db),
		group:      repository.NewGroupRepository(db),
		document:   repository.NewDocumentRepository(db),
		question:   repository.NewQuestionRepository(db),
		test:       repository.NewTestRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		session:    repository.NewSessionRepository(db),
		audit:      repository.NewAuditRepository(db),
		stats:      repository.NewStatsRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.Audit = service.NewAuditService(repos.audit)
	s.Auth = service.NewAuthService(repos.user, service.NewCredentialIssuer(&cfg.Auth))
	s.User = service.NewUserService(repos.user, repos.role, repos.group, s.Audit)
	s.Role = service.NewRoleService(repos.role, s.Audit)
	s.Group = service.NewGroupService(repos.group, repos.user, s.Audit)

	var queue service.GenerationQueue = service.NoopGenerationQueue{}
	if rdb != nil {
		queue = service.NewRedisGenerationQueue(rdb, cfg.Queue.GenerationKey)
	}
	s.Storage = service.NewStorageService(&cfg.Storage)
	s.Document = service.NewDocumentService(repos.document, s.Storage, queue, s.Audit, cfg.Storage.MaxUploadMB)

	s.Question = service.NewQuestionService(repos.question, s.Audit)
	s.Moodle = service.NewMoodleService(repos.question, s.Audit)
	s.Test = service.NewTestService(repos.test, repos.question, s.Audit)
	s.Assignment = service.NewAssignmentService(repos.assignment, repos.test, repos.user, repos.group, s.Audit)
	s.Session = service.NewSessionService(repos.session, repos.test, repos.question, repos.assignment, s.Assignment, s.Audit)
	s.Stats = service.NewStatsService(repos.stats)
	s.Seed = service.NewSeedService(s.User, s.Role, s.Group)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.Auth, s.User),
		user:       controller.NewUserController(s.User),
		role:       controller.NewRoleController(s.Role),
		group:      controller.NewGroupController(s.Group),
		document:   controller.NewDocumentController(s.Document),
		question:   controller.NewQuestionController(s.Question),
		moodle:     controller.NewMoodleController(s.Moodle),
		test:       controller.NewTestController(s.Test, s.Assignment),
		assignment: controller.NewAssignmentController(s.Assignment),
		session:    controller.NewSessionController(s.Session),
		audit:      controller.NewAuditController(s.Audit),
		health:     controller.NewHealthController(s.Stats),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(a.Policy))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.Policy))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func rateWindow(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

// New 在已打开的连接上组装仓储、服务和路由。rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
		Redis:     rdb,
		Policy:    security.NewPolicy(cfg.CORS.AllowedOrigins, cfg.RateLimit.MaxRequests, rateWindow(cfg)),
	}

	repos := app.initRepositories(db)
	app.Services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.Services)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(c *config.Config) {
		app.Policy.Update(c.CORS.AllowedOrigins, c.RateLimit.MaxRequests, rateWindow(c))
	})

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	} else {
		logger.Log.Warn("Redis disabled, uploaded documents stay pending")
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if cfg.SeedFile != "" {
		fixtures, err := service.LoadFixtures(cfg.SeedFile)
		if err != nil {
			logger.Log.Fatal("Failed to load fixtures", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
		if err := app.Services.Seed.Apply(context.Background(), fixtures); err != nil {
			logger.Log.Fatal("Failed to seed database", zap.Error(err))
		}
		logger.Log.Info("Fixtures applied", zap.String("file", cfg.SeedFile))
	}

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	err := configwatcher.WatchConfig(ctx, a.ConfigDir, func(cfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close 释放数据库、Redis 和 tracer
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

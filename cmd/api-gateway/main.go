package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/bit-fotutors/classroom-api/api/swagger"
	"github.com/bit-fotutors/classroom-api/internal/handler"
	"github.com/bit-fotutors/classroom-api/internal/middleware"
	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/notify"
	"github.com/bit-fotutors/classroom-api/internal/repository"
	"github.com/bit-fotutors/classroom-api/internal/service"
	"github.com/bit-fotutors/classroom-api/pkg/cache"
	"github.com/bit-fotutors/classroom-api/pkg/config"
	"github.com/bit-fotutors/classroom-api/pkg/database"
	"github.com/bit-fotutors/classroom-api/pkg/export"
	"github.com/bit-fotutors/classroom-api/pkg/logger"
	corsmiddleware "github.com/bit-fotutors/classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bit-fotutors/classroom-api/pkg/middleware/requestid"
	"github.com/bit-fotutors/classroom-api/pkg/storage"
)

// @title Classroom API
// @version 1.0.0
// @description Tutoring backend behind the messaging-bot gateway
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient := cacheClient(cfg, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	parentRepo := repository.NewParentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	metricsSvc := service.NewMetricsService()

	dispatcher := notify.NewDispatcher(
		meteredSender{next: notify.NewLogSender(logr), metrics: metricsSvc},
		notify.Config{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		},
		logr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	validate := validator.New()

	authSvc := service.NewAuthService(teacherRepo, studentRepo, parentRepo, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, teacherRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, studentRepo, teacherRepo, validate, logr)
	homeworkSvc := service.NewHomeworkService(homeworkRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(
		assignmentRepo, homeworkRepo, studentRepo, groupRepo,
		dispatcher, cfg.Homework.DefaultDeadline, validate, logr,
	)
	submissionSvc := service.NewSubmissionService(
		submissionRepo, store, signer, cacheRepo, dispatcher, validate, logr,
	)
	billingSvc := service.NewBillingService(
		teacherRepo, paymentRepo, studentRepo, groupRepo,
		export.NewCSVExporter(), dispatcher,
		service.BillingConfig{
			SubscriptionAmount: cfg.Billing.SubscriptionAmount,
			Currency:           cfg.Billing.SubscriptionCurrency,
			PeriodDays:         cfg.Billing.SubscriptionPeriodDays,
		}, validate, logr,
	)
	parentSvc := service.NewParentService(
		parentRepo, studentRepo, submissionRepo,
		meteredReportCache{next: cacheRepo, metrics: metricsSvc},
		export.NewPDFExporter(),
		service.ReportsConfig{
			CacheTTL:   cfg.Reports.CacheTTL,
			RecentSize: cfg.Reports.RecentSize,
		}, validate, logr,
	)
	lessonSvc := service.NewLessonService(lessonRepo, studentRepo, groupRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	homeworkHandler := handler.NewHomeworkHandler(homeworkSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, cfg.Uploads.MaxFileSizeBytes)
	billingHandler := handler.NewBillingHandler(billingSvc)
	parentHandler := handler.NewParentHandler(parentSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/teachers", teacherHandler.Register)
	api.POST("/parents", parentHandler.Register)
	api.GET("/submissions/download", submissionHandler.Download)

	gateway := api.Group("", middleware.GatewayKey(cfg.Gateway.APIKey))
	gateway.POST("/auth/token", authHandler.Token)
	gateway.POST("/billing/subscription/confirm", billingHandler.ConfirmSubscription)

	authed := api.Group("", middleware.JWT(authSvc))

	teacher := authed.Group("", middleware.RequireRoles(models.RoleTeacher))
	teacher.GET("/me", teacherHandler.Me)
	teacher.GET("/me/subscription", billingHandler.Subscription)
	teacher.POST("/students", studentHandler.Create)
	teacher.GET("/students", studentHandler.List)
	teacher.GET("/students/:id", studentHandler.Get)
	teacher.POST("/students/:id/attach", studentHandler.Attach)
	teacher.POST("/groups", groupHandler.Create)
	teacher.GET("/groups", groupHandler.List)
	teacher.GET("/groups/:id/members", groupHandler.Members)
	teacher.PUT("/groups/:id/members/:studentId", groupHandler.AddMember)
	teacher.DELETE("/groups/:id/members/:studentId", groupHandler.RemoveMember)
	teacher.POST("/homeworks", homeworkHandler.Create)
	teacher.GET("/homeworks", homeworkHandler.List)
	teacher.GET("/homeworks/:id", homeworkHandler.Get)
	teacher.POST("/assignments", assignmentHandler.Assign)
	teacher.GET("/assignments", assignmentHandler.List)
	teacher.GET("/assignments/:id/submissions", assignmentHandler.StatusBoard)
	teacher.POST("/submissions/:id/grade", submissionHandler.Grade)
	teacher.POST("/submissions/:id/download-token", submissionHandler.DownloadToken)
	teacher.POST("/payments", billingHandler.RecordPayment)
	teacher.GET("/payments", billingHandler.ListPayments)
	teacher.GET("/payments/export", billingHandler.ExportLedger)
	teacher.POST("/billing/subscription", billingHandler.ApplySubscription)
	teacher.POST("/lessons", lessonHandler.Schedule)
	teacher.GET("/lessons", lessonHandler.Upcoming)
	teacher.DELETE("/lessons/:id", lessonHandler.Cancel)

	student := authed.Group("", middleware.RequireRoles(models.RoleStudent))
	student.GET("/submissions", submissionHandler.ListMine)
	student.POST("/submissions/:id/file", submissionHandler.SubmitFile)

	parent := authed.Group("", middleware.RequireRoles(models.RoleParent))
	parent.POST("/children", parentHandler.LinkChild)
	parent.GET("/children", parentHandler.Children)
	parent.GET("/children/report", parentHandler.Report)
	parent.GET("/children/report/pdf", parentHandler.ReportPDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

// cacheClient connects to Redis when enabled. A connection failure degrades
// to cache-less operation instead of refusing to start.
func cacheClient(cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		return nil
	}
	return client
}

// meteredSender counts delivered notifications by kind.
type meteredSender struct {
	next    notify.Sender
	metrics *service.MetricsService
}

func (s meteredSender) Send(ctx context.Context, msg notify.Message) error {
	if err := s.next.Send(ctx, msg); err != nil {
		return err
	}
	s.metrics.RecordNotification(msg.Kind)
	return nil
}

// meteredReportCache counts report cache hits and misses.
type meteredReportCache struct {
	next    *repository.CacheRepository
	metrics *service.MetricsService
}

func (c meteredReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.next.Get(ctx, key, dest)
	c.metrics.RecordCacheLookup(err == nil)
	return err
}

func (c meteredReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.next.Set(ctx, key, value, ttl)
}

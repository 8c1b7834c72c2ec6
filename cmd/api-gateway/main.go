package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/educhain-labs/educhain-api/api/swagger"
	"github.com/educhain-labs/educhain-api/internal/handler"
	"github.com/educhain-labs/educhain-api/internal/middleware"
	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/repository"
	"github.com/educhain-labs/educhain-api/internal/service"
	"github.com/educhain-labs/educhain-api/pkg/cache"
	"github.com/educhain-labs/educhain-api/pkg/config"
	"github.com/educhain-labs/educhain-api/pkg/database"
	"github.com/educhain-labs/educhain-api/pkg/jobs"
	"github.com/educhain-labs/educhain-api/pkg/logger"
	corsmiddleware "github.com/educhain-labs/educhain-api/pkg/middleware/cors"
	reqidmiddleware "github.com/educhain-labs/educhain-api/pkg/middleware/requestid"
	"github.com/educhain-labs/educhain-api/pkg/storage"
)

// @title EduChain API
// @version 0.1.0
// @description Wallet-based task marketplace with a token economy
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(profileRepo, sessionRepo, cacheRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		NonceTTL:           cfg.JWT.NonceTTL,
	})
	profileSvc := service.NewProfileService(profileRepo, validate, logr, service.WelcomeBonuses{
		Teacher: cfg.Tokens.WelcomeBonusTeacher,
		Student: cfg.Tokens.WelcomeBonusStudent,
	})
	homeworkSvc := service.NewHomeworkService(homeworkRepo, profileRepo, store, signer, validate, logr, cfg.Tokens.TaskCreationCost)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, homeworkRepo, profileRepo, store, logr)
	reviewSvc := service.NewReviewService(reviewRepo, homeworkRepo, enrollmentRepo, profileRepo, validate, logr)
	voteSvc := service.NewVoteService(voteRepo, profileRepo, logr)
	questionSvc := service.NewQuestionService(questionRepo, homeworkRepo, profileRepo, validate, logr, cfg.Tokens.MentorAnswerReward)
	mentorSvc := service.NewMentorService(profileRepo, logr, service.MentorGate{
		MinRating:         cfg.Mentor.MinRating,
		MinCompletedCount: cfg.Mentor.MinCompletedCount,
	})
	ledgerSvc := service.NewLedgerService(ledgerRepo, profileRepo, logr)
	leaderboardSvc := service.NewLeaderboardService(leaderboardRepo, cacheRepo, logr, cfg.Leaderboard.CacheTTL)
	statementSvc := service.NewStatementService(ledgerRepo, profileRepo, badgeRepo, logr)
	badgeSvc := service.NewBadgeService(badgeRepo, profileRepo, nil, validate, logr)

	mintQueue := jobs.NewQueue("badge_mint", badgeSvc.MintHandler(), jobs.QueueConfig{
		Workers:    cfg.Badges.MintWorkers,
		MaxRetries: cfg.Badges.MintRetries,
		Logger:     logr,
	})
	badgeSvc.AttachQueue(mintQueue)

	profileSvc.AttachMetrics(metricsSvc)
	homeworkSvc.AttachMetrics(metricsSvc)
	reviewSvc.AttachMetrics(metricsSvc)
	voteSvc.AttachMetrics(metricsSvc)
	questionSvc.AttachMetrics(metricsSvc)
	mentorSvc.AttachMetrics(metricsSvc)
	badgeSvc.AttachMetrics(metricsSvc)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	if cfg.Badges.Enabled {
		mintQueue.Start(queueCtx)
		defer mintQueue.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	homeworkHandler := handler.NewHomeworkHandler(homeworkSvc, cfg.Uploads.MaxFileSizeBytes)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, cfg.Uploads.MaxFileSizeBytes)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	voteHandler := handler.NewVoteHandler(voteSvc)
	questionHandler := handler.NewQuestionHandler(questionSvc)
	mentorHandler := handler.NewMentorHandler(mentorSvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)
	statementHandler := handler.NewStatementHandler(statementSvc)
	badgeHandler := handler.NewBadgeHandler(badgeSvc)
	downloadHandler := handler.NewDownloadHandler(signer, store)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/nonce", authHandler.Nonce)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	profiles := api.Group("/profiles")
	{
		profiles.POST("", profileHandler.Onboard)
		profiles.GET("", profileHandler.List)
		profiles.GET("/me", middleware.JWT(authSvc), profileHandler.Me)
		profiles.GET("/wallet/:address", profileHandler.GetByWallet)
		profiles.GET("/:id", profileHandler.Get)
		profiles.PUT("/:id", middleware.JWT(authSvc), middleware.RBAC(middleware.SelfRole), profileHandler.Update)
		profiles.DELETE("/:id", middleware.JWT(authSvc), middleware.RBAC(middleware.SelfRole), profileHandler.Delete)
		profiles.GET("/:id/reviews", reviewHandler.ListByStudent)
		profiles.GET("/:id/badges", badgeHandler.ListByProfile)
	}

	homeworks := api.Group("/homeworks")
	{
		homeworks.GET("", homeworkHandler.List)
		homeworks.GET("/:id", homeworkHandler.Get)
		homeworks.GET("/:id/reviews", reviewHandler.ListByHomework)
		homeworks.GET("/:id/questions", questionHandler.ListByHomework)
		homeworks.POST("", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleTeacher)), homeworkHandler.Create)
		homeworks.PUT("/:id", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleTeacher)), homeworkHandler.Update)
		homeworks.DELETE("/:id", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleTeacher)), homeworkHandler.Delete)
		homeworks.POST("/:id/resources", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleTeacher)), homeworkHandler.AttachResource)
		homeworks.GET("/:id/resources", middleware.JWT(authSvc), homeworkHandler.Resources)
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authSvc))
	{
		enrollments.POST("", middleware.RBAC(string(models.RoleStudent)), enrollmentHandler.Enroll)
		enrollments.POST("/:id/submit", middleware.RBAC(string(models.RoleStudent)), enrollmentHandler.Submit)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.GET("", enrollmentHandler.List)
	}

	api.POST("/reviews", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleTeacher)), reviewHandler.Create)
	votes := api.Group("/votes", middleware.JWT(authSvc))
	{
		votes.POST("", voteHandler.Cast)
		votes.GET("/:id", voteHandler.Mine)
	}

	questions := api.Group("/questions", middleware.JWT(authSvc))
	{
		questions.POST("", middleware.RBAC(string(models.RoleStudent)), questionHandler.Ask)
		questions.POST("/:id/answers", middleware.RBAC(string(models.RoleTeacher), middleware.MentorRole), questionHandler.Answer)
		questions.GET("/:id/answers", questionHandler.ListAnswers)
	}

	mentors := api.Group("/mentors", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleStudent)))
	{
		mentors.GET("/eligibility", mentorHandler.Eligibility)
		mentors.POST("/upgrade", mentorHandler.Upgrade)
	}

	ledger := api.Group("/ledger", middleware.JWT(authSvc))
	{
		ledger.GET("", ledgerHandler.List)
		ledger.GET("/balance", ledgerHandler.Balance)
		ledger.GET("/audit", ledgerHandler.Audit)
		if cfg.Statements.Enabled {
			ledger.GET("/statement.csv", statementHandler.LedgerCSV)
			ledger.GET("/statement.pdf", statementHandler.LedgerPDF)
		}
	}

	if cfg.Badges.Enabled {
		api.POST("/badges", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleTeacher)), badgeHandler.Award)
		if cfg.Statements.Enabled {
			api.GET("/badges/:id/certificate", middleware.JWT(authSvc), statementHandler.BadgeCertificate)
		}
	}

	if cfg.Leaderboard.Enabled {
		leaderboards := api.Group("/leaderboards")
		{
			leaderboards.GET("/rated", leaderboardHandler.TopRated)
			leaderboards.GET("/upvoted", leaderboardHandler.TopUpvoted)
			leaderboards.GET("/stats", leaderboardHandler.Stats)
		}
	}

	api.GET("/files/download", downloadHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}

	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

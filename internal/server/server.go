package server

import (
	"context"
	"net/http"
	"time"

	"cv-talent/config"
	"cv-talent/internal/database"
	"cv-talent/internal/handlers"
	"cv-talent/internal/ingest"
	"cv-talent/internal/llm"
	"cv-talent/internal/middleware"
	"cv-talent/pkg/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	serviceName = "cv-talent-api"
	version     = "1.0.0"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *zap.Logger
	jwtService  *auth.JWTService
	db          *gorm.DB
	rateLimiter *middleware.RateLimiter

	// Handlers
	authHandler        *handlers.AuthHandler
	userHandler        *handlers.UserHandler
	candidateHandler   *handlers.CandidateHandler
	vacancyHandler     *handlers.VacancyHandler
	applicationHandler *handlers.ApplicationHandler
	shareHandler       *handlers.ShareHandler
	ingestionHandler   *handlers.IngestionHandler
}

// New wires the handlers to db and the ingestion backends
func New(cfg *config.Config, logger *zap.Logger, db *gorm.DB, gateway llm.Gateway, extractor ingest.TextExtractor) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	jwtService := auth.NewJWTService(cfg)

	orchestrator := ingest.NewOrchestrator(db, extractor, gateway, ingest.Options{
		BatchSize: cfg.Ingest.BatchSize,
		Model:     llm.ModelConfigFrom(cfg.LLM),
	}, logger)

	server := &Server{
		Router:     router,
		config:     cfg,
		logger:     logger,
		jwtService: jwtService,
		db:         db,
		rateLimiter: middleware.NewRateLimiter(
			cfg.RateLimit.Requests,
			time.Duration(cfg.RateLimit.Window)*time.Second,
			cfg.RateLimit.IdleTTL,
			logger,
		),
		authHandler:        handlers.NewAuthHandler(db, logger, jwtService),
		userHandler:        handlers.NewUserHandler(db, logger),
		candidateHandler:   handlers.NewCandidateHandler(db, logger, orchestrator, cfg.Ingest),
		vacancyHandler:     handlers.NewVacancyHandler(db, logger),
		applicationHandler: handlers.NewApplicationHandler(db, logger),
		shareHandler:       handlers.NewShareHandler(db, logger),
		ingestionHandler:   handlers.NewIngestionHandler(db, logger),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Start runs background maintenance until ctx is done
func (s *Server) Start(ctx context.Context) {
	s.rateLimiter.Start(ctx, s.config.RateLimit.SweepInterval)
	s.jwtService.StartCleanup(ctx, s.config.RateLimit.SweepInterval)
}

func (s *Server) setupMiddleware() {
	s.Router.Use(middleware.RequestIDMiddleware())
	s.Router.Use(middleware.RecoveryMiddleware(s.logger))
	s.Router.Use(middleware.LoggingMiddleware(s.logger))
	s.Router.Use(middleware.SecurityHeadersMiddleware())
	s.Router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.Router.Use(s.rateLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.healthCheck)
	s.Router.HEAD("/health", s.healthCheck)
	s.Router.GET("/ready", s.readinessCheck)
	s.Router.HEAD("/ready", s.readinessCheck)

	if s.config.IsDevelopment() {
		s.Router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := s.Router.Group("/api/v1")
	{
		v1.POST("/auth/login", s.authHandler.Login)
		v1.POST("/auth/refresh", s.authHandler.RefreshToken)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(s.jwtService, s.db))
		{
			auth := protected.Group("/auth")
			{
				auth.POST("/logout", s.authHandler.Logout)
				auth.GET("/me", s.authHandler.Me)
			}

			users := protected.Group("/users")
			users.Use(middleware.RequireAdmin())
			{
				users.GET("", s.userHandler.ListUsers)
				users.POST("", s.userHandler.CreateUser)
				users.GET("/:id", s.userHandler.GetUser)
				users.DELETE("/:id", s.userHandler.DeleteUser)
			}

			candidates := protected.Group("/candidates")
			{
				candidates.GET("", s.candidateHandler.ListCandidates)
				candidates.POST("", s.candidateHandler.CreateCandidate)
				candidates.GET("/email/:email", s.candidateHandler.GetCandidateByEmail)
				candidates.GET("/:id", s.candidateHandler.GetCandidate)
				candidates.PUT("/:id", s.candidateHandler.UpdateCandidate)
				candidates.DELETE("/:id", s.candidateHandler.DeleteCandidate)
			}

			vacancies := protected.Group("/vacancies")
			{
				vacancies.GET("", s.vacancyHandler.ListVacancies)
				vacancies.POST("", s.vacancyHandler.SaveVacancy)
				vacancies.GET("/count", s.vacancyHandler.CountApplications)
				vacancies.GET("/find", s.vacancyHandler.FindVacancies)
				vacancies.GET("/:id", s.vacancyHandler.GetVacancy)
				vacancies.PUT("/:id", s.vacancyHandler.UpdateVacancy)
				vacancies.DELETE("/:id", s.vacancyHandler.DeleteVacancy)
			}

			applications := protected.Group("/applications")
			{
				applications.GET("", s.applicationHandler.ListApplications)
				applications.GET("/:id", s.applicationHandler.ListByVacancy)
				applications.GET("/:id/:status", s.applicationHandler.ListByVacancyAndStatus)
				applications.PUT("/:id", s.applicationHandler.UpdateApplication)
			}

			shares := protected.Group("/shares")
			{
				shares.GET("/:senderId", s.shareHandler.ListBySender)
				shares.POST("", s.shareHandler.CreateShare)
				shares.PUT("/:id/status", s.shareHandler.UpdateShareStatus)
			}

			ingestions := protected.Group("/ingestions")
			{
				ingestions.GET("", s.ingestionHandler.ListRuns)
				ingestions.GET("/:id", s.ingestionHandler.GetRun)
			}
		}
	}
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version,
		"service":   serviceName,
	})
}

// readinessCheck handles readiness check requests
// @Summary Readiness check
// @Description Check if the database is reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (s *Server) readinessCheck(c *gin.Context) {
	if err := database.IsHealthy(s.db); err != nil {
		s.logger.Error("Database health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"timestamp": time.Now().UTC(),
			"error":     "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"version":   version,
		"service":   serviceName,
		"checks": gin.H{
			"database": "healthy",
			"pool":     database.GetStats(s.db),
		},
	})
}

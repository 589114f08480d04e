package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/taskforge/attachment-service/internal/adapter/handler/http"
	"github.com/taskforge/attachment-service/internal/adapter/multipart"
	"github.com/taskforge/attachment-service/internal/config"
	"github.com/taskforge/attachment-service/internal/domain/storage"
	"github.com/taskforge/attachment-service/internal/infrastructure/database"
	"github.com/taskforge/attachment-service/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
	store  storage.BlobStore
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, store storage.BlobStore) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Error("Request failed", fields...)
				return nil
			}
			logger.Info("Request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	return &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		repos:  repos,
		store:  store,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	storageCfg := s.config.Storage

	// Pipeline wiring
	decoder := multipart.NewDecoder(storageCfg.ScratchDir, storageCfg.MaxRequestSize, s.logger)
	validator := usecase.NewValidator(storageCfg.MaxFileSize, storageCfg.AllowedTypes)
	names := usecase.NewNameGenerator()

	uploadService := usecase.NewUploadService(validator, names, s.store, s.repos.Attachment, s.repos.Task, s.logger)
	attachmentService := usecase.NewAttachmentService(validator, s.store, s.repos.Attachment, s.logger)

	attachmentHandler := handlers.NewAttachmentHandler(decoder, uploadService, attachmentService, s.logger)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	v1.POST("/tasks/:task_id/attachments", attachmentHandler.Upload)
	v1.GET("/tasks/:task_id/attachments", attachmentHandler.List)
	v1.GET("/tasks/:task_id/attachments/:id", attachmentHandler.Download)
	v1.DELETE("/tasks/:task_id/attachments/:id", attachmentHandler.Delete)
}

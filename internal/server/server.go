package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carelink-messaging/config"
	"carelink-messaging/internal/handler"
	"carelink-messaging/internal/middleware"
	"carelink-messaging/internal/transport/httpdto"
	"carelink-messaging/pkg/database"
	"carelink-messaging/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	db         *gorm.DB
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Broadcasts    *handler.BroadcastHandler
}

func New(cfg *config.Config, l *logger.Logger, db *gorm.DB) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		db:     db,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(s.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	auth := middleware.AuthMiddleware(s.config.JWTSecret)

	conversations := s.engine.Group("/v1/conversations", auth)
	{
		conversations.GET("", handlers.Conversations.List)
		conversations.POST("/groups", handlers.Conversations.CreateGroup)
		conversations.GET("/:id", handlers.Conversations.Get)
		conversations.POST("/:id/participants", handlers.Conversations.AddParticipant)
		conversations.DELETE("/:id/participants", handlers.Conversations.RemoveParticipant)
		conversations.POST("/:id/archive", handlers.Conversations.Archive)
		conversations.POST("/:id/unarchive", handlers.Conversations.Unarchive)
	}

	messages := s.engine.Group("/v1/messages", auth)
	{
		messages.POST("", handlers.Messages.Send)
		messages.GET("/unread-count", handlers.Messages.UnreadCount)
		messages.GET("/by-priority", handlers.Messages.ListByPriority)
		messages.GET("/:id", handlers.Messages.GetByID)
		messages.PATCH("/:id/status", handlers.Messages.SetStatus)
		messages.POST("/:id/read", handlers.Messages.MarkRead)
	}

	broadcasts := s.engine.Group("/v1/broadcasts", auth)
	{
		broadcasts.POST("", handlers.Broadcasts.Create)
		broadcasts.GET("", handlers.Broadcasts.List)
		broadcasts.PATCH("/:id/status", handlers.Broadcasts.SetStatus)
		broadcasts.POST("/:id/read", handlers.Broadcasts.MarkRead)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}

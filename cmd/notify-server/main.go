package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"socialhub/internal/config"
	"socialhub/internal/server/handler"
	"socialhub/internal/server/middleware"
	"socialhub/internal/server/models"
	"socialhub/internal/server/repository"
	"socialhub/internal/server/service"
	"socialhub/internal/server/ws"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.Post{},
		&models.Call{},
	); err != nil {
		log.Fatalf("could not migrate database: %v", err)
	}
	logger.Info("connected to the database")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	callRepo := repository.NewCallRepository(db)

	// Stream hub + services
	hub := ws.NewHub(logger)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, callRepo, hub, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	contentHandler := handler.NewContentHandler(postRepo, callRepo)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/check-conn", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "notify-server is alive"})
	})

	authHandler.RegisterRoutes(r.Group("/auth"))

	api := r.Group("/", middleware.AuthMiddleware(authSvc))
	notificationHandler.RegisterRoutes(api)
	contentHandler.RegisterRoutes(api)
	api.GET("/ws/notifications/:identity/", ws.Handler(hub))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("notify-server listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// newLogger builds the slog logger from config
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/cache"
	"github.com/Dias221467/Friendship_Manager/internal/config"
	"github.com/Dias221467/Friendship_Manager/internal/database"
	"github.com/Dias221467/Friendship_Manager/internal/handlers"
	"github.com/Dias221467/Friendship_Manager/internal/jobs"
	"github.com/Dias221467/Friendship_Manager/internal/repository"
	"github.com/Dias221467/Friendship_Manager/internal/scheduler"
	"github.com/Dias221467/Friendship_Manager/internal/services"
	"github.com/Dias221467/Friendship_Manager/pkg/email"
	"github.com/Dias221467/Friendship_Manager/pkg/logger"
	"github.com/Dias221467/Friendship_Manager/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := userRepo.EnsureIndexes(indexCtx); err != nil {
		logger.Log.WithError(err).Warn("Failed to ensure user indexes")
	}
	if err := activityRepo.EnsureIndexes(indexCtx); err != nil {
		logger.Log.WithError(err).Warn("Failed to ensure activity indexes")
	}
	cancel()

	// Redis is optional: without it recommendations are uncached and sends are not rate limited.
	rdb := cache.NewRedisClient(cfg.RedisAddr)
	var recCache services.RecommendationCache
	if rdb != nil {
		recCache = cache.NewRecommendationCache(rdb, cfg.RecommendationTTL)
	}

	var mailer services.Mailer
	if sender := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword); sender.Enabled() {
		mailer = sender
	}

	// --- Services ---
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	activityService := services.NewActivityService(activityRepo)
	friendService := services.NewFriendService(userRepo, notificationService, activityService, recCache, mailer)

	router := mux.NewRouter()
	handlers.RegisterRoutes(router, handlers.Routes{
		JWTSecret:          cfg.JWTSecret,
		Users:              handlers.NewUserHandler(userService, cfg),
		Friends:            handlers.NewFriendHandler(friendService),
		Notifications:      handlers.NewNotificationHandler(notificationService),
		Activities:         handlers.NewActivityHandler(activityService),
		LastActive:         userService,
		Redis:              rdb,
		FriendRequestLimit: cfg.FriendRequestLimit,
		RateLimitWindow:    cfg.RateLimitWindow,
	})

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	cronJobs, err := scheduler.Start(notificationService, jobs.NewPendingRequestReminder(userRepo, notificationService))
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	<-cronJobs.Stop().Done()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("HTTP server shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Client().Disconnect(ctx); err != nil {
		logger.Log.WithError(err).Error("MongoDB disconnect failed")
	}
}

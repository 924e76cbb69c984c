// @title           Farm Photos Backend API
// @version         1.0.0
// @description     Backend API for farm photo submissions. Handles upload leases against blob storage, a moderation queue, per-farm photo quotas, soft deletion with a recovery window, and background reconciliation between the record store and blob storage.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm-photos-backend/internal/blob"
	"farm-photos-backend/internal/config"
	"farm-photos-backend/internal/farms"
	"farm-photos-backend/internal/handlers"
	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/middleware"
	"farm-photos-backend/internal/notify"
	"farm-photos-backend/internal/photos"
	"farm-photos-backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Record store
	store, err := kv.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()

	// Blob storage
	blobs, err := blob.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	// Farm directory (optional: without it every farm id is accepted)
	var checker photos.FarmChecker
	if cfg.DatabaseURL != "" {
		directory, err := farms.NewDirectory(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize farm directory: %v", err)
			log.Println("Farm existence checks are disabled. Set DATABASE_URL to enable them.")
		} else {
			defer directory.Close()
			checker = directory
		}
	} else {
		log.Println("Warning: DATABASE_URL not set. Farm existence checks are disabled.")
	}

	// Moderation event publisher (optional)
	var notifier photos.Notifier
	if cfg.KafkaBroker != "" {
		publisher := notify.NewPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer publisher.Close()
		notifier = publisher
	} else {
		log.Println("Warning: KAFKA_BROKER not set. Moderation events will not be published.")
	}

	service := photos.NewService(store, blobs, checker, notifier, photos.Options{
		Quota:          cfg.PhotoQuota,
		LeaseTTL:       cfg.LeaseTTL,
		RecoveryWindow: cfg.RecoveryWindow,
		MaxUploadSize:  cfg.MaxUploadSize,
	})

	limiter := ratelimit.New(store, cfg.RateLimitWindow, cfg.RateLimitCeiling)

	// Initialize handlers
	leasesHandler := handlers.NewLeasesHandler(service, limiter)
	photosHandler := handlers.NewPhotosHandler(service)
	moderationHandler := handlers.NewModerationHandler(service)
	recoveryHandler := handlers.NewRecoveryHandler(service)
	reconcileHandler := handlers.NewReconcileHandler(service)

	// Setup router
	router := gin.Default()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Public routes
	api := router.Group("/api/v1")
	api.POST("/farms/:farm_id/photos/reserve", leasesHandler.Reserve)
	api.POST("/photos/:photo_id/confirm", leasesHandler.Confirm)
	api.GET("/photos/:photo_id", photosHandler.GetStatus)

	// Moderator routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.RequireModerator(cfg.JWTSecret))
	admin.GET("/photos/pending", moderationHandler.ListPending)
	admin.POST("/photos/:photo_id/approve", moderationHandler.Approve)
	admin.POST("/photos/:photo_id/reject", moderationHandler.Reject)
	admin.POST("/photos/:photo_id/delete", recoveryHandler.SoftDelete)
	admin.POST("/photos/:photo_id/recover", recoveryHandler.Recover)
	admin.GET("/photos/recoverable", recoveryHandler.ListRecoverable)
	admin.POST("/reconcile", reconcileHandler.Run)

	// Background reconciliation sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runSweeper(ctx, service, cfg.SweepInterval)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func runSweeper(ctx context.Context, service *photos.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.RunReconciliation(ctx); err != nil {
				log.Printf("Reconciliation sweep failed: %v", err)
			}
		}
	}
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/loadlink/loadlink-backend/internal/config"
	"github.com/loadlink/loadlink-backend/internal/database"
	"github.com/loadlink/loadlink-backend/internal/handlers"
	"github.com/loadlink/loadlink-backend/internal/logging"
	"github.com/loadlink/loadlink-backend/internal/middleware"
	"github.com/loadlink/loadlink-backend/internal/services"
	"github.com/loadlink/loadlink-backend/internal/store"
	"github.com/loadlink/loadlink-backend/internal/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := config.Load()

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Get underlying SQL DB instance and configure the pool
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get database instance", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	st := store.New(db)

	// Initialize WebSocket hub
	hub := services.NewHub(logger)
	go hub.Run()

	// Redis is optional; without it events stay instance-local and the
	// position cache is skipped.
	var publisher services.Publisher = hub
	var cache services.PositionCache
	bridge, err := services.NewRedisBridge(cfg.RedisURL, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without event bridge", zap.Error(err))
	} else {
		publisher = services.MultiPublisher{hub, bridge}
		cache = bridge
		go bridge.Relay(context.Background(), hub)
	}

	notifier := services.NewNotifier(st, publisher, logger)
	tracker := services.NewLocationTracker(st, st, cache, publisher, logger,
		cfg.DefaultSpeedKmh, cfg.LocationRetentionDays)
	lifecycle := services.NewLoadLifecycle(st, st, st, tracker, notifier, logger)

	// Schedule the location retention sweep
	sweep := workers.NewRetentionSweep(tracker, logger)
	cronRunner, err := workers.Start(sweep, logger)
	if err != nil {
		logger.Fatal("failed to start retention sweep", zap.Error(err))
	}
	defer cronRunner.Stop()

	// Initialize router
	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(st))
			auth.POST("/login", handlers.Login(st))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			loads := protected.Group("/loads")
			{
				loads.GET("", handlers.GetAvailableLoads(st))
				loads.POST("", handlers.CreateLoad(st))
				loads.GET("/mine", handlers.GetCustomerLoads(st))
				loads.GET("/assigned", handlers.GetDriverLoads(st))
				loads.GET("/:loadId", handlers.GetLoad(st))
				loads.POST("/:loadId/accept", handlers.AcceptLoad(lifecycle))
				loads.POST("/:loadId/arrived-pickup", handlers.ArrivedAtPickup(lifecycle))
				loads.POST("/:loadId/pickup", handlers.PickUpLoad(lifecycle))
				loads.POST("/:loadId/start-transit", handlers.StartTransit(lifecycle))
				loads.POST("/:loadId/arrived-dropoff", handlers.ArrivedAtDropoff(lifecycle))
				loads.POST("/:loadId/deliver", handlers.DeliverLoad(lifecycle))
				loads.POST("/:loadId/complete", handlers.CompleteLoad(lifecycle))
				loads.POST("/:loadId/cancel", handlers.CancelLoad(lifecycle))
				loads.POST("/:loadId/eta", handlers.UpdateLoadETA(lifecycle))
				loads.GET("/:loadId/eta", handlers.GetLoadETA(tracker))
				loads.POST("/:loadId/rating", handlers.RateLoad(st, st))
				loads.PUT("/:loadId/rating", handlers.UpdateRating(st))
				loads.DELETE("/:loadId/rating", handlers.DeleteRating(st))
			}

			driver := protected.Group("/driver")
			{
				driver.POST("/location", handlers.RecordLocation(tracker))
				driver.GET("/location", handlers.GetLatestLocation(tracker))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.GET("/driver", handlers.GetDriverBookings(st))
				bookings.GET("/customer", handlers.GetCustomerBookings(st))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", handlers.ListNotifications(st))
				notifications.GET("/unread-count", handlers.GetUnreadCount(st))
				notifications.POST("/:id/read", handlers.MarkNotificationRead(st))
				notifications.POST("/read-all", handlers.MarkAllNotificationsRead(st))
			}
		}
	}

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/internal/config"
	"warehouse_flow_backend/internal/database"
	"warehouse_flow_backend/internal/locking"
	"warehouse_flow_backend/internal/middleware"
	"warehouse_flow_backend/internal/movement"
	"warehouse_flow_backend/internal/repositories"
	"warehouse_flow_backend/internal/router"
	"warehouse_flow_backend/internal/services"
	"warehouse_flow_backend/pkg/utils" // Import utils for logger

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		utils.LogError(err, "Failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if _, err := database.SeedLocations(ctx, db, repositories.NewLocationRepository()); err != nil {
		utils.LogError(err, "Failed to seed location catalog")
		os.Exit(1)
	}
	if err := services.NewAuthService(repositories.NewAuthRepository(), db).EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		utils.LogError(err, "Failed to bootstrap admin account")
		os.Exit(1)
	}

	var locker locking.Locker = locking.NoopLocker{}
	if cfg.RedisAddress != "" {
		rdb, err := locking.Connect(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			utils.LogError(err, "Failed to connect to Redis")
			os.Exit(1)
		}
		defer rdb.Close()
		locker = locking.NewRedisLocker(rdb, cfg.LockTTL)
		utils.LogInfo("Redis location locks enabled", map[string]interface{}{"address": cfg.RedisAddress})
	}

	robot, err := amr.NewClient(amr.Config{
		BaseURL:   cfg.MiR.BaseURL,
		User:      cfg.MiR.User,
		Password:  cfg.MiR.Password,
		DryRun:    cfg.MiR.DryRun,
		Timeout:   cfg.MiR.Timeout,
		VerifyTLS: cfg.MiR.VerifyTLS,
	})
	if err != nil {
		utils.LogError(err, "Invalid MiR configuration")
		os.Exit(1)
	}
	dispatcher := amr.NewDispatcher(robot, map[string]string{
		movement.PhotoStationCode:      cfg.MiR.MissionPhoto,
		movement.InspectionStationCode: cfg.MiR.MissionInspection,
		movement.PackagingStationCode:  cfg.MiR.MissionPackaging,
	}, cfg.MiR.MissionAfterStock, cfg.MiR.Timeout)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "mir_dry_run": robot.DryRun()})
	})

	// Setup all application routes
	router.Setup(engine, router.Dependencies{
		DB:             db,
		Locker:         locker,
		Robot:          robot,
		Dispatcher:     dispatcher,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "db_driver": cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
	utils.LogInfo("Server stopped")
}

package router

import (
	"database/sql"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/internal/handlers"
	"warehouse_flow_backend/internal/locking"
	"warehouse_flow_backend/internal/metrics"
	"warehouse_flow_backend/internal/middleware"
	"warehouse_flow_backend/internal/repositories"
	"warehouse_flow_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies are the process-wide collaborators the routes are built on.
type Dependencies struct {
	DB             *sql.DB
	Locker         locking.Locker
	Robot          handlers.RobotClient
	Dispatcher     *amr.Dispatcher
	UploadDir      string
	MaxUploadBytes int64
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository()
	itemRepo := repositories.NewItemRepository()
	locationRepo := repositories.NewLocationRepository()
	movementRepo := repositories.NewMovementRepository()

	// Initialize Services
	authService := services.NewAuthService(authRepo, deps.DB)
	itemService := services.NewItemService(deps.DB, itemRepo, locationRepo, movementRepo, deps.UploadDir)
	movementService := services.NewMovementService(deps.DB, itemRepo, locationRepo, movementRepo, deps.Locker, deps.Dispatcher)
	queueService := services.NewWorkQueueService(deps.DB, itemRepo, locationRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	itemHandler := handlers.NewItemHandler(itemService, deps.MaxUploadBytes)
	movementHandler := handlers.NewMovementHandler(movementService)
	queueHandler := handlers.NewWorkQueueHandler(queueService)

	engine.GET("/metrics", metrics.Handler())
	engine.Static("/uploads", deps.UploadDir)

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupItemRoutes(authenticated, itemHandler, movementHandler)
		SetupWorkQueueRoutes(authenticated, queueHandler)
		SetupLocationRoutes(authenticated, queueHandler)
		if deps.Robot != nil {
			SetupAMRRoutes(authenticated, handlers.NewAMRHandler(deps.Robot))
		}
	}
}

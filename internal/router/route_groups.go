package router

import (
	"warehouse_flow_backend/internal/handlers"
	"warehouse_flow_backend/internal/middleware"
	"warehouse_flow_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes registers the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
	group.POST("/users", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.CreateUser)
}

// SetupItemRoutes sets up the item and movement routes.
func SetupItemRoutes(authenticatedGroup *gin.RouterGroup, itemHandler *handlers.ItemHandler, movementHandler *handlers.MovementHandler) {
	itemRoutes := authenticatedGroup.Group("/items")
	{
		itemRoutes.POST("", itemHandler.CreateItem)
		itemRoutes.GET("", itemHandler.SearchItems)
		itemRoutes.GET("/:id", itemHandler.GetItem)
		itemRoutes.PATCH("/:id/refs", itemHandler.UpdateRefs)
		itemRoutes.POST("/:id/photo", itemHandler.UploadPhoto)

		itemRoutes.GET("/:id/movements", movementHandler.GetMovementHistory)
		itemRoutes.POST("/:id/move", movementHandler.MoveItem)
		itemRoutes.POST("/:id/auto-slot", movementHandler.AutoSlot)
		itemRoutes.POST("/:id/stations/:code", movementHandler.SendToStation)
		itemRoutes.POST("/:id/inspection", movementHandler.RecordInspection)
		itemRoutes.POST("/:id/put-away", movementHandler.PutAway)
	}
}

// SetupWorkQueueRoutes sets up the per-station work lists.
func SetupWorkQueueRoutes(authenticatedGroup *gin.RouterGroup, queueHandler *handlers.WorkQueueHandler) {
	workRoutes := authenticatedGroup.Group("/work")
	{
		workRoutes.GET("/photo", queueHandler.PhotoQueue)
		workRoutes.GET("/inspection", queueHandler.InspectionQueue)
		workRoutes.GET("/packaging", queueHandler.PackagingQueue)
	}
}

func SetupLocationRoutes(authenticatedGroup *gin.RouterGroup, queueHandler *handlers.WorkQueueHandler) {
	authenticatedGroup.GET("/locations", queueHandler.ListLocations)
	authenticatedGroup.GET("/locations/free", queueHandler.ListFreeSlots)
	authenticatedGroup.GET("/dashboard", queueHandler.Dashboard)
}

// SetupAMRRoutes sets up the robot pass-through routes.
func SetupAMRRoutes(authenticatedGroup *gin.RouterGroup, amrHandler *handlers.AMRHandler) {
	amrRoutes := authenticatedGroup.Group("/amr")
	{
		amrRoutes.GET("/status", amrHandler.Status)
		amrRoutes.GET("/missions", amrHandler.Missions)
		amrRoutes.POST("/missions/:guid", amrHandler.StartMission)
	}
}

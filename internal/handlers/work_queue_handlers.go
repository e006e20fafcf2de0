package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// WorkQueueHandler serves the station work lists and the location views.
type WorkQueueHandler struct {
	queueService services.WorkQueueService
}

// NewWorkQueueHandler creates a new WorkQueueHandler.
func NewWorkQueueHandler(qs services.WorkQueueService) *WorkQueueHandler {
	return &WorkQueueHandler{queueService: qs}
}

func (h *WorkQueueHandler) PhotoQueue(c *gin.Context) {
	items, err := h.queueService.PhotoQueue(c.Request.Context())
	if err != nil {
		respondWorkflowError(c, "PhotoQueue", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *WorkQueueHandler) InspectionQueue(c *gin.Context) {
	items, err := h.queueService.InspectionQueue(c.Request.Context())
	if err != nil {
		respondWorkflowError(c, "InspectionQueue", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// PackagingQueue also returns the free floor and shelf slots the items can go to.
func (h *WorkQueueHandler) PackagingQueue(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.queueService.PackagingQueue(ctx)
	if err != nil {
		respondWorkflowError(c, "PackagingQueue", err)
		return
	}
	floor, err := h.queueService.ListFreeSlots(ctx, models.KindFloor, nil)
	if err != nil {
		respondWorkflowError(c, "PackagingQueue", err)
		return
	}
	shelves, err := h.queueService.ListFreeSlots(ctx, models.KindShelf, nil)
	if err != nil {
		respondWorkflowError(c, "PackagingQueue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "floor_slots": floor, "shelf_slots": shelves})
}

// ListFreeSlots handles GET /locations/free?kind=FLOOR&size=GRAND.
func (h *WorkQueueHandler) ListFreeSlots(c *gin.Context) {
	kind := models.LocationKind(strings.ToUpper(c.DefaultQuery("kind", string(models.KindFloor))))
	var size *models.Size
	if raw := strings.TrimSpace(c.Query("size")); raw != "" {
		s := models.Size(strings.ToUpper(raw))
		size = &s
	}

	slots, err := h.queueService.ListFreeSlots(c.Request.Context(), kind, size)
	if err != nil {
		respondWorkflowError(c, "ListFreeSlots", err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// ListLocations handles GET /locations?kind=SHELF&include_inactive=true.
func (h *WorkQueueHandler) ListLocations(c *gin.Context) {
	var kind *models.LocationKind
	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		k := models.LocationKind(strings.ToUpper(raw))
		kind = &k
	}
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))

	locations, err := h.queueService.ListLocations(c.Request.Context(), kind, includeInactive)
	if err != nil {
		respondWorkflowError(c, "ListLocations", err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *WorkQueueHandler) Dashboard(c *gin.Context) {
	dash, err := h.queueService.Dashboard(c.Request.Context())
	if err != nil {
		respondWorkflowError(c, "Dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

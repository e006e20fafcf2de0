package handlers

import (
	"net/http"

	"warehouse_flow_backend/internal/middleware"
	"warehouse_flow_backend/internal/services"
	"warehouse_flow_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MovementHandler exposes the movement orchestrator. The authenticated
// username is recorded as the actor of every move.
type MovementHandler struct {
	movementService services.MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(ms services.MovementService) *MovementHandler {
	return &MovementHandler{movementService: ms}
}

func (h *MovementHandler) MoveItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var req services.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	res, err := h.movementService.MoveTo(c.Request.Context(), itemID, req, middleware.Actor(c))
	if err != nil {
		respondWorkflowError(c, "MoveItem", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MovementHandler) AutoSlot(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	res, err := h.movementService.ChooseAndMoveToFreeFloorSlot(c.Request.Context(), itemID, middleware.Actor(c))
	if err != nil {
		respondWorkflowError(c, "AutoSlot", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SendToStation moves the item to :code. A robot dispatch failure is
// reported in amr_warning with a 200.
func (h *MovementHandler) SendToStation(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	res, err := h.movementService.SendToStation(c.Request.Context(), itemID, c.Param("code"), middleware.Actor(c))
	if err != nil {
		respondWorkflowError(c, "SendToStation", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MovementHandler) RecordInspection(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var req services.InspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	res, err := h.movementService.RecordInspection(c.Request.Context(), itemID, req.Result, middleware.Actor(c))
	if err != nil {
		respondWorkflowError(c, "RecordInspection", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MovementHandler) PutAway(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var req services.PutAwayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	res, err := h.movementService.PutAway(c.Request.Context(), itemID, req, middleware.Actor(c))
	if err != nil {
		respondWorkflowError(c, "PutAway", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMovementHistory lists the item's movements, newest first.
func (h *MovementHandler) GetMovementHistory(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	movements, err := h.movementService.GetMovementHistory(c.Request.Context(), itemID)
	if err != nil {
		respondWorkflowError(c, "GetMovementHistory", err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

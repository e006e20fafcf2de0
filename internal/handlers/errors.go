package handlers

import (
	"errors"
	"net/http"

	"warehouse_flow_backend/internal/services"
	"warehouse_flow_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondWorkflowError maps the workflow error taxonomy onto the API envelope.
// op names the failing handler in logs.
func respondWorkflowError(c *gin.Context, op string, err error) {
	var apiErr *utils.APIError
	switch {
	case errors.Is(err, services.ErrOccupancyRace):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeOccupancyRace, "Location was taken by a concurrent move, retry.", err.Error())
		apiErr.Retryable = true
	case errors.Is(err, services.ErrInvalidPlacement):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidPlacement, "Placement refused.", err.Error())
	case errors.Is(err, services.ErrNoCompatibleSlot):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeNoCompatibleSlot, "No compatible free slot.", err.Error())
	case errors.Is(err, services.ErrItemNotFound):
		apiErr = utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Item not found.", err.Error())
	case errors.Is(err, services.ErrLocationNotFound):
		apiErr = utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Location not found.", err.Error())
	case errors.Is(err, services.ErrSKUExists):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "SKU already exists.", err.Error())
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrUnsupportedPhoto):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error())
	default:
		utils.LogError(err, op+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal error.", "Internal error"))
		return
	}

	utils.LogWarn(err, op+": request refused", map[string]interface{}{"code": apiErr.Code})
	utils.RespondWithError(c, apiErr)
}

// itemIDParam parses :id, answering 400 itself when it is not a positive integer.
func itemIDParam(c *gin.Context) (int64, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

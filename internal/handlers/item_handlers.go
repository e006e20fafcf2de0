package handlers

import (
	"errors"
	"net/http"

	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/services"
	"warehouse_flow_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ItemHandler holds the item service.
type ItemHandler struct {
	itemService    services.ItemService
	maxUploadBytes int64
}

// NewItemHandler creates a new ItemHandler. Photo uploads above maxUploadBytes are refused.
func NewItemHandler(is services.ItemService, maxUploadBytes int64) *ItemHandler {
	return &ItemHandler{itemService: is, maxUploadBytes: maxUploadBytes}
}

// CreateItem registers a received item.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), req)
	if err != nil {
		respondWorkflowError(c, "CreateItem", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// SearchItems lists items matching ?q=, newest first.
func (h *ItemHandler) SearchItems(c *gin.Context) {
	items, err := h.itemService.SearchItems(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondWorkflowError(c, "SearchItems", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": len(items)})
}

// GetItem returns the item page: item, current location and history.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	detail, err := h.itemService.GetItemDetail(c.Request.Context(), itemID)
	if err != nil {
		respondWorkflowError(c, "GetItem", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateRefs replaces the avis/order/BL references.
func (h *ItemHandler) UpdateRefs(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var refs models.ItemRefs
	if err := c.ShouldBindJSON(&refs); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.itemService.UpdateRefs(c.Request.Context(), itemID, refs)
	if err != nil {
		respondWorkflowError(c, "UpdateRefs", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UploadPhoto stores the multipart "photo" file on the item.
func (h *ItemHandler) UploadPhoto(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusRequestEntityTooLarge, utils.ErrCodeValidationFailed, "Photo is too large.", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "A 'photo' file is required.", err.Error()))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "UploadPhoto: failed to open upload")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Could not read uploaded file.", err.Error()))
		return
	}
	defer file.Close()

	item, err := h.itemService.AttachPhoto(c.Request.Context(), itemID, fileHeader.Filename, file)
	if err != nil {
		respondWorkflowError(c, "UploadPhoto", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

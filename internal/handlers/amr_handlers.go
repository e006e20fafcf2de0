package handlers

import (
	"context"
	"net/http"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RobotClient is the part of amr.Client the pass-through routes use.
type RobotClient interface {
	Status(ctx context.Context) (map[string]interface{}, error)
	Missions(ctx context.Context) ([]amr.Mission, error)
	StartMission(ctx context.Context, missionGUID string) (map[string]interface{}, error)
}

// AMRHandler proxies the robot API for the operator screens.
type AMRHandler struct {
	robot RobotClient
}

// NewAMRHandler creates a new AMRHandler.
func NewAMRHandler(robot RobotClient) *AMRHandler {
	return &AMRHandler{robot: robot}
}

func (h *AMRHandler) Status(c *gin.Context) {
	status, err := h.robot.Status(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, "AMR status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AMRHandler) Missions(c *gin.Context) {
	missions, err := h.robot.Missions(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, "AMR missions", err)
		return
	}
	c.JSON(http.StatusOK, missions)
}

func (h *AMRHandler) StartMission(c *gin.Context) {
	guid := c.Param("guid")
	if utils.IsEmpty(guid) {
		utils.RespondValidationFailed(c, "mission guid is required")
		return
	}

	res, err := h.robot.StartMission(c.Request.Context(), guid)
	if err != nil {
		respondUpstreamError(c, "AMR start mission", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func respondUpstreamError(c *gin.Context, op string, err error) {
	utils.LogWarn(err, op+" failed")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeUpstreamFailure, op+" failed.", err.Error()))
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/internal/services"
	"warehouse_flow_backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Error utils.APIError `json:"error"`
}

func TestRespondWorkflowError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
	}{
		{"race", fmt.Errorf("%w: S-A01", services.ErrOccupancyRace), http.StatusConflict, utils.ErrCodeOccupancyRace, true},
		{"placement", fmt.Errorf("%w: size mismatch", services.ErrInvalidPlacement), http.StatusConflict, utils.ErrCodeInvalidPlacement, false},
		{"no slot", services.ErrNoCompatibleSlot, http.StatusConflict, utils.ErrCodeNoCompatibleSlot, false},
		{"item", services.ErrItemNotFound, http.StatusNotFound, utils.ErrCodeNotFound, false},
		{"location", services.ErrLocationNotFound, http.StatusNotFound, utils.ErrCodeNotFound, false},
		{"validation", fmt.Errorf("%w: bad kind", services.ErrValidation), http.StatusBadRequest, utils.ErrCodeValidationFailed, false},
		{"photo", services.ErrUnsupportedPhoto, http.StatusBadRequest, utils.ErrCodeValidationFailed, false},
		{"sku", services.ErrSKUExists, http.StatusConflict, utils.ErrCodeConflict, false},
		{"other", errors.New("disk full"), http.StatusInternalServerError, utils.ErrCodeInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondWorkflowError(c, "test", tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.retryable, body.Error.Retryable)
		})
	}
}

type fakeRobot struct {
	err error
}

func (f fakeRobot) Status(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"state_text": "Ready"}, f.err
}

func (f fakeRobot) Missions(context.Context) ([]amr.Mission, error) {
	return []amr.Mission{{GUID: "g-1", Name: "POSTE-PHOTO"}}, f.err
}

func (f fakeRobot) StartMission(_ context.Context, guid string) (map[string]interface{}, error) {
	return map[string]interface{}{"mission_id": guid}, f.err
}

func amrEngine(robot RobotClient) *gin.Engine {
	r := gin.New()
	h := NewAMRHandler(robot)
	r.GET("/amr/status", h.Status)
	r.GET("/amr/missions", h.Missions)
	r.POST("/amr/missions/:guid", h.StartMission)
	return r
}

func TestAMRPassThrough(t *testing.T) {
	r := amrEngine(fakeRobot{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/amr/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state_text":"Ready"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/amr/missions/g-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mission_id":"g-1"}`, w.Body.String())
}

func TestAMRFailureIsBadGateway(t *testing.T) {
	r := amrEngine(fakeRobot{err: errors.New("dial tcp: connection refused")})

	for _, path := range []string{"/amr/status", "/amr/missions"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadGateway, w.Code, path)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, utils.ErrCodeUpstreamFailure, body.Error.Code)
	}
}

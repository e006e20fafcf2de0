package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse_flow_backend/internal/amr"
	"warehouse_flow_backend/internal/database"
	"warehouse_flow_backend/internal/locking"
	"warehouse_flow_backend/internal/middleware"
	"warehouse_flow_backend/internal/models"
	"warehouse_flow_backend/internal/repositories"
	"warehouse_flow_backend/internal/services"
	"warehouse_flow_backend/pkg/utils"
)

const (
	adminUser     = "admin"
	adminPassword = "correct-horse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	utils.ConfigureJWT("router-test-secret", time.Hour)

	db, err := database.Open(ctx, database.Options{
		Driver:      database.DriverSQLite,
		SQLitePath:  filepath.Join(dir, "warehouse.db"),
		ApplySchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.SeedLocations(ctx, db, repositories.NewLocationRepository())
	require.NoError(t, err)
	require.NoError(t, services.NewAuthService(repositories.NewAuthRepository(), db).EnsureAdmin(ctx, adminUser, adminPassword))

	robot, err := amr.NewClient(amr.Config{DryRun: true})
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	Setup(engine, Dependencies{
		DB:             db,
		Locker:         locking.NoopLocker{},
		Robot:          robot,
		Dispatcher:     amr.NewDispatcher(robot, map[string]string{"POSTE-PHOTO": "dry-photo"}, "", 0),
		UploadDir:      filepath.Join(dir, "uploads"),
		MaxUploadBytes: 1 << 20,
	})
	return &apiClient{t: t, engine: engine}
}

func (a *apiClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *apiClient) login() {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", models.Credentials{Username: adminUser, Password: adminPassword})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var resp services.AuthResponse
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(a.t, resp.AccessToken)
	a.token = resp.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRoutesRequireToken(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/v1/items", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/login", models.Credentials{Username: adminUser, Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestItemLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	api.login()

	w := api.do(http.MethodPost, "/api/v1/items", map[string]interface{}{"size": "grand", "avis_no": "AV-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[models.Item](t, w)
	assert.Equal(t, "SKU-00001", item.SKU)
	assert.Equal(t, models.StatusReceived, item.Status)
	itemPath := "/api/v1/items/" + utils.Int64ToStr(item.ID)

	w = api.do(http.MethodPost, itemPath+"/move", map[string]interface{}{"location_code": "POSTE-PHOTO"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[services.PlacementResult](t, w)
	assert.Equal(t, models.StatusPhoto, res.Status)

	// A GRAND item never fits a PETIT floor slot.
	w = api.do(http.MethodPost, itemPath+"/move", map[string]interface{}{"location_code": "S-B01"})
	require.Equal(t, http.StatusConflict, w.Code)
	errBody := decode[struct {
		Error utils.APIError `json:"error"`
	}](t, w)
	assert.Equal(t, utils.ErrCodeInvalidPlacement, errBody.Error.Code)
	assert.False(t, errBody.Error.Retryable)

	w = api.do(http.MethodPost, itemPath+"/auto-slot", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[services.PlacementResult](t, w)
	require.NotNil(t, res.Location)
	assert.Equal(t, "S-A01", res.Location.Code)

	w = api.do(http.MethodGet, itemPath+"/movements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]models.Movement](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, res.MovementID, history[0].ID)
	require.NotNil(t, history[0].Actor)
	assert.Equal(t, adminUser, *history[0].Actor)

	w = api.do(http.MethodGet, "/api/v1/locations/free?kind=FLOOR&size=GRAND", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"S-A01"`)
}

func TestUnknownItemIsNotFound(t *testing.T) {
	api := newAPI(t)
	api.login()

	w := api.do(http.MethodPost, "/api/v1/items/999/move", map[string]interface{}{"location_code": "POSTE-PHOTO"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAMRDryRunRoutes(t *testing.T) {
	api := newAPI(t)
	api.login()

	w := api.do(http.MethodGet, "/api/v1/amr/missions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	missions := decode[[]amr.Mission](t, w)
	assert.NotEmpty(t, missions)
}

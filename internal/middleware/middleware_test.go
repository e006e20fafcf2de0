package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse_flow_backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	secured := r.Group("/secured", AuthMiddleware())
	secured.GET("/whoami", func(c *gin.Context) {
		actor := Actor(c)
		if actor == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, *actor)
	})
	secured.GET("/admin", RoleAuthMiddleware("Admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(RequestIDHeader, "terminal-7-0001")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "terminal-7-0001", w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("middleware-secret", 0)
	r := newEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secured/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), utils.ErrCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/secured/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateAccessToken(3, "operator1", "Operator")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/secured/whoami", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator1", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/secured/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := utils.GenerateAccessToken(1, "admin", "Admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/secured/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

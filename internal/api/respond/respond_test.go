package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"oahelper-api/internal/domain/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, dev bool, h gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	r := gin.New()
	r.Use(Mode(dev))
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestBusinessErrorsAreOK(t *testing.T) {
	code, body := serve(t, false, func(c *gin.Context) {
		Fail(c, fmt.Errorf("spend: %w", apperror.WithData("Insufficient coins", map[string]any{"shortage": 3})))
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Insufficient coins", body["message"])
	assert.Equal(t, map[string]any{"shortage": float64(3)}, body["data"])
}

func TestInfrastructureErrorsByEnvironment(t *testing.T) {
	failing := func(c *gin.Context) { Fail(c, errors.New("select Users: status 503")) }

	code, body := serve(t, false, failing)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, MsgGeneric, body["message"])

	_, body = serve(t, true, failing)
	assert.Equal(t, "select Users: status 503", body["message"])
}

func TestSuccessShapes(t *testing.T) {
	_, body := serve(t, false, func(c *gin.Context) { Success(c, "", gin.H{"n": 1}) })
	assert.Equal(t, "success", body["status"])
	assert.NotContains(t, body, "message")
	assert.Equal(t, map[string]any{"n": float64(1)}, body["data"])

	_, body = serve(t, false, func(c *gin.Context) { With(c, "Login successful.", gin.H{"user": gin.H{"id": 1}}) })
	assert.Equal(t, "Login successful.", body["message"])
	assert.Contains(t, body, "user")
}

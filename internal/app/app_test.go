package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oahelper-api/config"
	authapi "oahelper-api/internal/api/auth"
	"oahelper-api/internal/app"
	"oahelper-api/internal/app/http/middleware"
	"oahelper-api/internal/mailer"
	"oahelper-api/internal/platform/logger"
	"oahelper-api/internal/supabase/supabasetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	apiKey = "test-api-key"
	origin = "https://oahelper.in"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	router *gin.Engine
	srv    *supabasetest.Server
	mail   *mailer.Recorder
	clock  time.Time
}

func newHarness(t *testing.T) *harness {
	return newLimitedHarness(t, 30)
}

func newLimitedHarness(t *testing.T, codesPerMinute int) *harness {
	h := &harness{
		srv:   supabasetest.New(t),
		mail:  &mailer.Recorder{},
		clock: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	cfg := &config.Config{
		Env:            config.Production,
		APIKey:         apiKey,
		AllowedOrigins: config.OriginsFor(config.Production, ""),
		JWTSecret:      "test-secret",
		SessionTTL:     90 * 24 * time.Hour,
		Location:       time.UTC,
	}
	log := logger.Discard()
	h.router = app.NewRouter(cfg, app.Infra{
		DB:          h.srv.Client(),
		Mail:        mailer.New(h.mail, "https://oahelper.in", "", nil, log),
		Log:         log,
		CodeLimiter: middleware.NewMemoryLimiter(codesPerMinute),
		Now:         func() time.Time { return h.clock },
	})
	return h
}

func (h *harness) call(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Origin", origin)
	req.Header.Set("X-API-Key", apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (h *harness) seedAdmin(t *testing.T, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h.srv.Seed("admin_credentials", supabasetest.Row{
		"username":      "admin",
		"email":         "admin@oahelper.in",
		"password_hash": string(hash),
		"is_active":     true,
	})
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", body)
	return d
}

func TestSignupToPremiumScenario(t *testing.T) {
	h := newHarness(t)
	h.seedAdmin(t, "admin-pass")

	_, body := h.call(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Alice", "email": "alice@gmail.com", "password": "hunter123", "college": "IIT",
	}, "")
	require.Equal(t, "success", body["status"], body)
	assert.Equal(t, true, body["email_sent"])

	row, ok := h.srv.Find("Users", "email", "alice@gmail.com")
	require.True(t, ok)
	code := fmt.Sprint(row["verification_code"])
	require.Len(t, code, 4)
	msg, ok := h.mail.Last(mailer.KindVerification)
	require.True(t, ok)
	assert.Contains(t, msg.HTML, code)

	_, body = h.call(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "alice@gmail.com", "password": "hunter123"}, "")
	assert.Equal(t, authapi.MsgVerifyBeforeLogin, body["message"])

	_, body = h.call(t, http.MethodPost, "/api/auth/verify-code", map[string]any{"email": "alice@gmail.com", "code": code}, "")
	require.Equal(t, "success", body["status"], body)
	assert.Equal(t, authapi.MsgEmailVerified, body["message"])

	_, body = h.call(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "alice@gmail.com", "password": "hunter123"}, "")
	require.Equal(t, "success", body["status"], body)
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(0), user["oacoins"])
	userToken, _ := user["token"].(string)
	require.NotEmpty(t, userToken)

	_, body = h.call(t, http.MethodGet, "/api/oacoins/balance?user_id=alice@gmail.com", nil, "")
	assert.Equal(t, float64(0), body["oacoins"])

	_, body = h.call(t, http.MethodPost, "/api/admin/login", map[string]any{"username": "admin", "password": "admin-pass"}, "")
	require.Equal(t, "success", body["status"], body)
	adminToken, _ := data(t, body)["token"].(string)
	require.NotEmpty(t, adminToken)

	activation := map[string]any{
		"email":      "alice@gmail.com",
		"start_date": "2025-01-01T00:00:00Z",
		"end_date":   "2025-01-31T00:00:00Z",
		"plan_type":  "pro",
		"amount":     199,
	}
	status, _ := h.call(t, http.MethodPost, "/api/premium/manual-activate", activation, userToken)
	assert.Equal(t, http.StatusForbidden, status, "a user session is not an admin session")

	_, body = h.call(t, http.MethodPost, "/api/premium/manual-activate", activation, adminToken)
	require.Equal(t, "success", body["status"], body)
	_, ok = h.mail.Last(mailer.KindManualActivate)
	assert.True(t, ok)

	h.clock = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	_, body = h.call(t, http.MethodGet, "/api/premium/status?user_id=alice@gmail.com", nil, "")
	assert.Equal(t, true, data(t, body)["is_premium"])

	_, body = h.call(t, http.MethodGet, "/api/users/me", nil, userToken)
	require.Equal(t, "success", body["status"], body)
	me := data(t, body)
	assert.Equal(t, "pro", me["premium"].(map[string]any)["plan"])
	assert.Equal(t, "premium", me["access"].(map[string]any)["state"])

	h.clock = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	_, body = h.call(t, http.MethodGet, "/api/premium/status?user_id=alice@gmail.com", nil, "")
	assert.Equal(t, false, data(t, body)["is_premium"])
}

func TestGatekeeperGuardsAPI(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/premium/status?user_id=1", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCodeRouteLimitIgnoresForwardedFor(t *testing.T) {
	h := newLimitedHarness(t, 2)

	codes := make([]int, 0, 3)
	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password",
			bytes.NewBufferString(`{"email":"nobody@gmail.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Origin", origin)
		req.Header.Set("X-API-Key", apiKey)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w := httptest.NewRecorder()
		h.router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAdminRoutesNeedSession(t *testing.T) {
	h := newHarness(t)
	status, body := h.call(t, http.MethodGet, "/api/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "error", body["status"])
}

func TestInfrastructureErrorIsGeneric(t *testing.T) {
	h := newHarness(t)
	h.srv.Fail(http.MethodGet, "banned_emails", http.StatusInternalServerError)

	status, body := h.call(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "alice@gmail.com", "password": "hunter123"}, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "A database error occurred.", body["message"])
}

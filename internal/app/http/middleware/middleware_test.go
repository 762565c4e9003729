package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oahelper-api/internal/domain/session"
	"oahelper-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "success"}) }

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGatekeeper(t *testing.T) {
	origins := []string{"https://oahelper.in"}
	cases := []struct {
		name    string
		dev     bool
		headers map[string]string
		status  int
		message string
	}{
		{"valid origin and key", false, map[string]string{"Origin": "https://oahelper.in", "X-API-Key": "k"}, 200, ""},
		{"referer prefix", false, map[string]string{"Referer": "https://oahelper.in/premium", "X-API-Key": "k"}, 200, ""},
		{"curl blocked", false, map[string]string{"User-Agent": "curl/8.0", "Origin": "https://oahelper.in", "X-API-Key": "k"}, 403, MsgAutomatedAccess},
		{"python blocked", false, map[string]string{"User-Agent": "Python-urllib/3.11", "X-API-Key": "k"}, 403, MsgAutomatedAccess},
		{"foreign origin", false, map[string]string{"Origin": "https://evil.example", "X-API-Key": "k"}, 403, MsgBadOrigin},
		{"no origin in production", false, map[string]string{"X-API-Key": "k"}, 403, MsgBadOrigin},
		{"no origin in development", true, map[string]string{"X-API-Key": "k"}, 200, ""},
		{"foreign origin in development", true, map[string]string{"Origin": "https://evil.example", "X-API-Key": "k"}, 403, MsgBadOrigin},
		{"wrong key", false, map[string]string{"Origin": "https://oahelper.in", "X-API-Key": "nope"}, 401, MsgBadAPIKey},
		{"missing key", false, map[string]string{"Origin": "https://oahelper.in"}, 401, MsgBadAPIKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Gatekeeper("k", origins, tc.dev))
			r.GET("/x", okHandler)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, decode(t, w)["message"])
			}
		})
	}
}

func TestAuthMiddlewareAndRole(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	iss := session.NewIssuer("secret", time.Hour, func() time.Time { return now })

	r := gin.New()
	r.GET("/me", AuthMiddleware(iss), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id"), "email": c.GetString("email")})
	})
	r.GET("/admin", AuthMiddleware(iss), RequireRole("admin"), okHandler)

	userToken, err := iss.Issue(7, "alice@gmail.com", "user")
	require.NoError(t, err)
	adminToken, err := iss.Issue(1, "admin", "admin")
	require.NoError(t, err)

	call := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("/me", "Bearer "+userToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), decode(t, w)["user_id"])

	assert.Equal(t, http.StatusUnauthorized, call("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/me", userToken).Code)
	assert.Equal(t, http.StatusUnauthorized, call("/me", "Bearer custom-session-abc").Code)

	assert.Equal(t, http.StatusForbidden, call("/admin", "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, call("/admin", "Bearer "+adminToken).Code)
}

func TestSanitizeSkipsSecrets(t *testing.T) {
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	var got map[string]any
	r.POST("/x", func(c *gin.Context) {
		require.NoError(t, c.ShouldBindJSON(&got))
		c.Status(http.StatusNoContent)
	})

	body := `{"name":"<script>x</script>Alice","password":"<p@ss>","solution_code":"vector<int> v;","user_id":12345678901}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body)))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Alice", got["name"])
	assert.Equal(t, "<p@ss>", got["password"])
	assert.Equal(t, "vector<int> v;", got["solution_code"])
	assert.Equal(t, float64(12345678901), got["user_id"])
}

func TestSanitizeEmptyAndMalformed(t *testing.T) {
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	r.POST("/x", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, "%d", len(b))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{nope")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/signup", RateLimit(NewMemoryLimiter(2), "signup"), okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMemoryLimiterEvictsIdleKeys(t *testing.T) {
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		ok, err := l.Allow(ctx, "signup:"+ip)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 3, l.size())

	clock = clock.Add(5 * time.Minute)
	ok, _ := l.Allow(ctx, "signup:10.0.0.1")
	assert.True(t, ok)

	clock = clock.Add(idleTTL)
	ok, _ = l.Allow(ctx, "signup:10.0.0.4")
	assert.True(t, ok)
	assert.Equal(t, 1, l.size(), "every key idle for idleTTL is dropped")

	ok, _ = l.Allow(ctx, "signup:10.0.0.4")
	assert.False(t, ok)
}

func TestRequestIDEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(logger.Discard()))
	r.GET("/x", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

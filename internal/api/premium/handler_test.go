package premium

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"oahelper-api/internal/payment/upi"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrRouter(payee upi.Payee) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(nil, nil, payee)
	r.GET("/payment-qr", h.PaymentQR)
	return r
}

func TestPaymentQR(t *testing.T) {
	tests := []struct {
		name    string
		payee   upi.Payee
		query   string
		png     bool
		message string
	}{
		{"renders png", upi.Payee{VPA: "oahelper@upi", Name: "OAHelper"}, "?amount=199&plan_type=pro", true, ""},
		{"missing amount", upi.Payee{VPA: "oahelper@upi"}, "", false, MsgInvalidAmount},
		{"negative amount", upi.Payee{VPA: "oahelper@upi"}, "?amount=-5", false, MsgInvalidAmount},
		{"no vpa", upi.Payee{}, "?amount=199", false, MsgUPIUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			qrRouter(tt.payee).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payment-qr"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			if tt.png {
				assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
				assert.Equal(t, "\x89PNG", w.Body.String()[:4])
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

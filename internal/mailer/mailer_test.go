package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"oahelper-api/config"
	"oahelper-api/internal/platform/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesRender(t *testing.T) {
	rec := &Recorder{}
	m := New(rec, "https://oahelper.in", "admin@oahelper.in", nil, logger.Discard())
	ctx := context.Background()
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.VerificationCode(ctx, "alice@gmail.com", "Alice", "0042"))
	require.NoError(t, m.ManualActivation(ctx, "alice@gmail.com", "Alice", "pro", end.AddDate(0, 0, -30), end, "<b>thanks</b>"))
	require.NoError(t, m.PaymentDecided(ctx, "alice@gmail.com", "Alice", false, "UTR not found"))
	require.NoError(t, m.AdminPaymentNotice(ctx, "Alice", "alice@gmail.com", decimal.NewFromInt(199), "upi", "pro", "123456", "pending"))

	msg, ok := rec.Last(KindVerification)
	require.True(t, ok)
	assert.Equal(t, "alice@gmail.com", msg.To)
	assert.Contains(t, msg.HTML, "0042")

	msg, ok = rec.Last(KindManualActivate)
	require.True(t, ok)
	assert.Contains(t, msg.HTML, "January 31, 2025 12:00 AM")
	assert.Contains(t, msg.HTML, "&lt;b&gt;thanks&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "https://oahelper.in/dashboard")

	msg, ok = rec.Last(KindPaymentRejected)
	require.True(t, ok)
	assert.Contains(t, msg.HTML, "UTR not found")

	msg, ok = rec.Last(KindAdminPayment)
	require.True(t, ok)
	assert.Equal(t, "admin@oahelper.in", msg.To)
	assert.Contains(t, msg.HTML, "123456")
}

func TestAdminNoticeSkippedWithoutAddress(t *testing.T) {
	rec := &Recorder{}
	m := New(rec, "", "", nil, logger.Discard())
	require.NoError(t, m.AdminPaymentNotice(context.Background(), "A", "a@gmail.com", decimal.NewFromInt(1), "upi", "", "", "pending"))
	assert.Empty(t, rec.Messages())
}

func TestSendFailureIsReturned(t *testing.T) {
	rec := &Recorder{}
	rec.Fail(errors.New("relay down"))
	m := New(rec, "", "", nil, logger.Discard())

	err := m.PasswordReset(context.Background(), "alice@gmail.com", "Alice", "1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestSMTPRenderHeaders(t *testing.T) {
	s := NewSMTPSender(config.SMTP{From: "support@oahelper.in", FromName: "OAHelper"})
	raw := string(s.render(Message{To: "alice@gmail.com", ToName: "Alice", Subject: "Hello", HTML: "<p>hi</p>"}))

	assert.True(t, strings.HasPrefix(raw, `From: "OAHelper" <support@oahelper.in>`+"\r\n"))
	assert.Contains(t, raw, `To: "Alice" <alice@gmail.com>`+"\r\n")
	assert.Contains(t, raw, "Subject: Hello\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>hi</p>")
}

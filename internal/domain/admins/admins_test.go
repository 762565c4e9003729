package admins_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"oahelper-api/internal/domain/admins"
	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/platform/logger"
	"oahelper-api/internal/supabase/supabasetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*admins.Service, *supabasetest.Server) {
	t.Helper()
	srv := supabasetest.New(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	srv.Seed("admin_credentials",
		supabasetest.Row{"username": "admin", "email": "ops@oahelper.in", "password_hash": string(hash), "is_active": true},
		supabasetest.Row{"username": "retired", "email": "old@oahelper.in", "password_hash": string(hash), "is_active": false},
	)
	clock := func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
	return admins.NewService(admins.NewStore(srv.Client(), clock), logger.Discard()), srv
}

func message(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected business error, got %v", err)
	return appErr.Message
}

func TestLogin(t *testing.T) {
	svc, srv := newService(t)
	ctx := context.Background()

	info, err := svc.Login(ctx, "admin", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ops@oahelper.in", info.Email)
	assert.Equal(t, admins.RoleAdmin, info.Role)

	row, ok := srv.Find("admin_credentials", "username", "admin")
	require.True(t, ok)
	assert.Equal(t, "2025-01-15T12:00:00Z", row["last_login"])

	_, err = svc.Login(ctx, "admin", "wrong")
	assert.Equal(t, admins.MsgInvalidCredentials, message(t, err))

	_, err = svc.Login(ctx, "retired", "hunter22")
	assert.Equal(t, admins.MsgInvalidCredentials, message(t, err))

	_, err = svc.Login(ctx, "ghost", "hunter22")
	assert.Equal(t, admins.MsgInvalidCredentials, message(t, err))

	_, err = svc.Login(ctx, "admin", "")
	assert.Equal(t, admins.MsgPasswordRequired, message(t, err))
}

func TestLoginSurvivesStampFailure(t *testing.T) {
	svc, srv := newService(t)
	srv.Fail(http.MethodPatch, "admin_credentials", http.StatusInternalServerError)

	_, err := svc.Login(context.Background(), "admin", "hunter22")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.Equal(t, admins.MsgBothPasswords, message(t, svc.ChangePassword(ctx, "admin", "", "x")))
	assert.Equal(t, admins.MsgWrongPassword, message(t, svc.ChangePassword(ctx, "admin", "nope", "longenough")))
	assert.Equal(t, admins.MsgPasswordTooShort, message(t, svc.ChangePassword(ctx, "admin", "hunter22", "abcd")))

	require.NoError(t, svc.ChangePassword(ctx, "admin", "hunter22", "fresh-pass"))
	_, err := svc.Login(ctx, "admin", "fresh-pass")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "admin", "hunter22")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	svc, _ := newService(t)
	info, err := svc.Info(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", info.Username)

	_, err = svc.Info(context.Background(), "retired")
	assert.Equal(t, admins.MsgAdminNotFound, message(t, err))
}

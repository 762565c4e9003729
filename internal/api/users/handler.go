package users

import (
	"context"
	"net/http"
	"time"

	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/access"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/quota"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	MsgUserIDRequired = "User ID is required"
	MsgUserNotFound   = "User not found"
)

type Subscriptions interface {
	Active(ctx context.Context, userID int64, at time.Time) (*premium.Subscription, error)
}

type Handler struct {
	users *users.Store
	subs  Subscriptions
	quota *quota.Service
	now   func() time.Time
}

func NewHandler(u *users.Store, subs Subscriptions, q *quota.Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{users: u, subs: subs, quota: q, now: now}
}

// GetCurrentUser answers GET /api/users/me for a bearer session.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		respond.Abort(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil {
		respond.Error(c, MsgUserNotFound)
		return
	}

	now := h.now()
	sub, err := h.subs.Active(ctx, user.ID, now)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	policy := access.ComputePolicy(now, sub)

	var status *quota.DailyStatus
	if policy.State != access.AccessFree {
		status, err = h.quota.DailyStatus(ctx, user.PublicID())
		if err != nil {
			logger.From(c).WithError(err).Warn("users: daily status unavailable")
			status = nil
		}
	}

	respond.Success(c, "", MeResponse{
		User:    BuildUserDTO(user),
		Premium: BuildPremiumDTO(now, sub),
		Access:  BuildAccessDTO(policy, status),
	})
}

// Lookup answers GET /api/users/lookup?user_id= with the public profile.
func (h *Handler) Lookup(c *gin.Context) {
	ref := c.Query("user_id")
	if ref == "" {
		respond.Error(c, MsgUserIDRequired)
		return
	}
	user, err := h.users.Resolve(c.Request.Context(), ref)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil {
		respond.Error(c, MsgUserNotFound)
		return
	}
	respond.Success(c, "", BuildLookupDTO(user))
}

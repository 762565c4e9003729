package admin

import (
	"strconv"
	"time"

	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/coins"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	MsgUserNotFound  = "User not found"
	MsgInvalidID     = "Invalid ID"
	MsgEmailRequired = "Email is required"
	MsgInvalidEmail  = "Invalid email address"
	MsgEmailBanned   = "Email banned successfully"
	MsgEmailUnbanned = "Email unbanned successfully"
	MsgBanFailed     = "Failed to ban email"
	MsgUnbanFailed   = "Failed to unban email"
)

const (
	userTransactions  = 100
	defaultUsersLimit = 20
)

type Handler struct {
	users   *users.Store
	premium *premium.Service
	journal *coins.Journal
	now     func() time.Time
}

func NewHandler(u *users.Store, p *premium.Service, journal *coins.Journal, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{users: u, premium: p, journal: journal, now: now}
}

// Stats answers GET /api/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	st, err := buildStats(c.Request.Context(), h.users, h.premium, h.now())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", st)
}

// ListUsers answers GET /api/admin/users?page=&limit=&search=.
func (h *Handler) ListUsers(c *gin.Context) {
	page := int(request.QueryInt(c, "page"))
	if page < 1 {
		page = 1
	}
	limit := int(request.QueryInt(c, "limit"))
	if limit < 1 || limit > 100 {
		limit = defaultUsersLimit
	}
	list, total, err := h.users.List(c.Request.Context(), page, limit, c.Query("search"))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	profiles := make([]users.Profile, len(list))
	for i := range list {
		profiles[i] = list[i].Profile()
	}
	respond.Success(c, "", gin.H{
		"users": profiles,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
		},
	})
}

// GetUser answers GET /api/admin/users/:id with the user's subscriptions and
// recent coin transactions.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, MsgInvalidID)
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if u == nil {
		respond.Error(c, MsgUserNotFound)
		return
	}
	subs, err := h.premium.Store().ListForUser(ctx, u.ID)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	txs, err := h.journal.ListForUser(ctx, u.ID, userTransactions)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", gin.H{
		"user":          u.Profile(),
		"subscriptions": subs,
		"transactions":  txs,
	})
}

func (h *Handler) ListBans(c *gin.Context) {
	bans, err := h.users.ListBans(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", bans)
}

func (h *Handler) Ban(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if !request.Bind(c, &in) {
		return
	}
	email := users.NormalizeEmail(in.Email)
	if email == "" {
		respond.Error(c, MsgEmailRequired)
		return
	}
	if !request.IsEmail(email) {
		respond.Error(c, MsgInvalidEmail)
		return
	}
	if err := h.users.Ban(c.Request.Context(), email); err != nil {
		logger.From(c).WithError(err).WithField("email", email).Error("admin: ban failed")
		respond.Error(c, MsgBanFailed)
		return
	}
	respond.Success(c, MsgEmailBanned, nil)
}

func (h *Handler) Unban(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, MsgInvalidID)
		return
	}
	if err := h.users.Unban(c.Request.Context(), id); err != nil {
		logger.From(c).WithError(err).WithField("ban_id", id).Error("admin: unban failed")
		respond.Error(c, MsgUnbanFailed)
		return
	}
	respond.Success(c, MsgEmailUnbanned, nil)
}

// CheckBan answers GET /api/admin/banned-emails/check?email=.
func (h *Handler) CheckBan(c *gin.Context) {
	email := users.NormalizeEmail(c.Query("email"))
	if email == "" {
		respond.Error(c, MsgEmailRequired)
		return
	}
	banned, err := h.users.CheckBan(c.Request.Context(), email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", gin.H{"email": email, "is_banned": banned})
}

package oacoins

import (
	"strings"

	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/coins"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/mailer"

	"github.com/gin-gonic/gin"
)

const (
	MsgUserIDRequired   = "User ID is required"
	MsgEmailRequired    = "Email is required"
	MsgNoUserWithEmail  = "User not found with this email"
	MsgPositiveAmount   = "Valid user ID and positive amount are required"
	MsgNonNegative      = "Valid user ID and non-negative amount are required"
	MsgCoinsAdded       = "Coins added successfully and notification sent"
	MsgCoinsDeducted    = "Coins deducted successfully"
	MsgCoinsSet         = "Coins set successfully"
	MsgPurchased        = "Premium subscription activated successfully"
	MsgExtended         = "Premium subscription extended successfully"
	defaultCreditReason = "Admin reward for community contribution"
)

type Handler struct {
	users   *users.Store
	ledger  *coins.Ledger
	premium *premium.Service
	mail    *mailer.Mailer
}

func NewHandler(u *users.Store, ledger *coins.Ledger, p *premium.Service, mail *mailer.Mailer) *Handler {
	return &Handler{users: u, ledger: ledger, premium: p, mail: mail}
}

func (h *Handler) resolve(c *gin.Context, ref string) *users.User {
	u, err := h.users.Resolve(c.Request.Context(), ref)
	if err != nil {
		respond.Fail(c, err)
		return nil
	}
	if u == nil {
		respond.Error(c, coins.MsgUserNotFound)
		return nil
	}
	return u
}

// Balance answers GET /api/oacoins/balance?user_id=.
func (h *Handler) Balance(c *gin.Context) {
	ref := c.Query("user_id")
	if ref == "" {
		respond.Error(c, MsgUserIDRequired)
		return
	}
	u := h.resolve(c, ref)
	if u == nil {
		return
	}
	c.JSON(200, gin.H{"status": respond.StatusSuccess, "oacoins": u.OACoins})
}

// UserByEmail answers GET /api/oacoins/user?email=.
func (h *Handler) UserByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		respond.Error(c, MsgEmailRequired)
		return
	}
	u, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if u == nil {
		respond.Error(c, MsgNoUserWithEmail)
		return
	}
	c.JSON(200, gin.H{"status": respond.StatusSuccess, "user": gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"oacoins":    u.OACoins,
		"verified":   u.Verified,
		"created_at": u.CreatedAt,
	}})
}

// Transactions answers GET /api/oacoins/transactions?user_id=&limit=.
func (h *Handler) Transactions(c *gin.Context) {
	ref := c.Query("user_id")
	if ref == "" {
		respond.Error(c, MsgUserIDRequired)
		return
	}
	u := h.resolve(c, ref)
	if u == nil {
		return
	}
	txs, err := h.ledger.Journal().ListForUser(c.Request.Context(), u.ID, int(request.QueryInt(c, "limit")))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", txs)
}

type adjustment struct {
	UserID request.Ref     `json:"user_id"`
	Amount request.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// Add answers POST /api/oacoins/add and tells the user by email.
func (h *Handler) Add(c *gin.Context) {
	var in adjustment
	if !request.Bind(c, &in) {
		return
	}
	if in.UserID == "" || !in.Amount.IsPositive() {
		respond.Error(c, MsgPositiveAmount)
		return
	}
	u := h.resolve(c, in.UserID.String())
	if u == nil {
		return
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = defaultCreditReason
	}

	ctx := c.Request.Context()
	balance, err := h.ledger.Credit(ctx, u.ID, in.Amount.Decimal, reason)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	sent := h.mail.CoinsCredited(ctx, u.Email, u.Name, in.Amount.Decimal, reason, balance) == nil

	c.JSON(200, gin.H{
		"status":      respond.StatusSuccess,
		"message":     MsgCoinsAdded,
		"new_balance": balance,
		"email_sent":  sent,
	})
}

// Deduct answers POST /api/oacoins/deduct.
func (h *Handler) Deduct(c *gin.Context) {
	var in adjustment
	if !request.Bind(c, &in) {
		return
	}
	if in.UserID == "" || !in.Amount.IsPositive() {
		respond.Error(c, MsgPositiveAmount)
		return
	}
	u := h.resolve(c, in.UserID.String())
	if u == nil {
		return
	}
	balance, err := h.ledger.Debit(c.Request.Context(), u.ID, in.Amount.Decimal, "Admin deduction")
	if err != nil {
		respond.Fail(c, err)
		return
	}
	c.JSON(200, gin.H{"status": respond.StatusSuccess, "message": MsgCoinsDeducted, "new_balance": balance})
}

// Set answers POST /api/oacoins/set.
func (h *Handler) Set(c *gin.Context) {
	var in adjustment
	if !request.Bind(c, &in) {
		return
	}
	if in.UserID == "" || !in.Amount.Valid || in.Amount.IsNegative() {
		respond.Error(c, MsgNonNegative)
		return
	}
	u := h.resolve(c, in.UserID.String())
	if u == nil {
		return
	}
	balance, err := h.ledger.Set(c.Request.Context(), u.ID, in.Amount.Decimal, "Admin balance adjustment")
	if err != nil {
		respond.Fail(c, err)
		return
	}
	c.JSON(200, gin.H{"status": respond.StatusSuccess, "message": MsgCoinsSet, "new_balance": balance})
}

// PurchasePremium answers POST /api/oacoins/purchase-premium.
func (h *Handler) PurchasePremium(c *gin.Context) {
	var in struct {
		UserID   request.Ref     `json:"user_id"`
		Amount   request.Decimal `json:"amount"`
		PlanType string          `json:"plan_type"`
	}
	if !request.Bind(c, &in) {
		return
	}
	res, err := h.premium.Purchase(c.Request.Context(), in.UserID.String(), in.Amount.Decimal, in.PlanType)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgPurchased, res)
}

// ExtendPremium answers POST /api/oacoins/extend-premium.
func (h *Handler) ExtendPremium(c *gin.Context) {
	var in struct {
		UserID request.Ref `json:"user_id"`
		Days   request.Int `json:"days"`
	}
	if !request.Bind(c, &in) {
		return
	}
	res, err := h.premium.Extend(c.Request.Context(), in.UserID.String(), int(in.Days))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgExtended, res)
}

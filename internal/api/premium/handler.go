package premium

import (
	"errors"
	"net/http"
	"strconv"

	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/quota"
	"oahelper-api/internal/payment/upi"

	"github.com/gin-gonic/gin"
)

const (
	MsgStatusRetrieved   = "Premium status retrieved"
	MsgAccessRetrieved   = "Question access retrieved"
	MsgAccessUpdated     = "Question access updated"
	MsgIDsRequired       = "User ID and Company ID are required"
	MsgUserIDRequired    = "User ID is required"
	MsgSubmitted         = "Payment request submitted successfully"
	MsgAutoApproved      = "Payment verified automatically. Premium subscription activated instantly!"
	MsgRequestsRetrieved = "Payment requests retrieved"
	MsgRequestUpdated    = "Payment request updated successfully"
	MsgRequestDeleted    = "Payment request deleted successfully"
	MsgActivated         = "Premium subscription activated successfully"
	MsgCanceled          = "Subscription canceled successfully"
	MsgUsersRetrieved    = "Premium users retrieved"
	MsgStatsRetrieved    = "Premium stats retrieved"
	MsgInvalidAmount     = "A positive amount is required"
	MsgUPIUnavailable    = "UPI payments are not configured"
	MsgInvalidID         = "Invalid ID"
)

type Handler struct {
	premium *premium.Service
	quota   *quota.Service
	payee   upi.Payee
}

func NewHandler(p *premium.Service, q *quota.Service, payee upi.Payee) *Handler {
	return &Handler{premium: p, quota: q, payee: payee}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, MsgInvalidID)
		return 0, false
	}
	return id, true
}

// Status answers GET /api/premium/status?user_id=.
func (h *Handler) Status(c *gin.Context) {
	ref := c.Query("user_id")
	if ref == "" {
		respond.Error(c, MsgUserIDRequired)
		return
	}
	sub, err := h.premium.Status(c.Request.Context(), ref)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgStatusRetrieved, gin.H{"is_premium": sub != nil, "subscription": sub})
}

// QuestionAccess answers GET /api/premium/question-access?user_id=&company_id=.
func (h *Handler) QuestionAccess(c *gin.Context) {
	ref := c.Query("user_id")
	company := request.QueryInt(c, "company_id")
	if ref == "" || company == 0 {
		respond.Error(c, MsgIDsRequired)
		return
	}
	access, err := h.quota.QuestionAccess(c.Request.Context(), ref, company)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgAccessRetrieved, access)
}

// IncrementQuestionAccess answers POST /api/premium/question-access.
func (h *Handler) IncrementQuestionAccess(c *gin.Context) {
	var in struct {
		UserID    request.Ref `json:"user_id"`
		CompanyID request.Int `json:"company_id"`
	}
	if !request.Bind(c, &in) {
		return
	}
	if in.UserID == "" || in.CompanyID == 0 {
		respond.Error(c, MsgIDsRequired)
		return
	}
	n, err := h.quota.IncrementQuestionAccess(c.Request.Context(), in.UserID.String(), int64(in.CompanyID))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgAccessUpdated, gin.H{"questions_accessed": n})
}

// SubmitPayment answers POST /api/premium/payments.
func (h *Handler) SubmitPayment(c *gin.Context) {
	var in struct {
		UserID            request.Ref     `json:"user_id"`
		UserEmail         string          `json:"user_email"`
		UserName          string          `json:"user_name"`
		Amount            request.Decimal `json:"amount"`
		PaymentMethod     string          `json:"payment_method"`
		PlanType          string          `json:"plan_type"`
		UTRNumber         string          `json:"utr_number"`
		PaymentDetails    string          `json:"payment_details"`
		PaymentScreenshot string          `json:"payment_screenshot"`
		AutoApprove       bool            `json:"auto_approve"`
	}
	if !request.Bind(c, &in) {
		return
	}
	err := h.premium.SubmitPayment(c.Request.Context(), premium.PaymentSubmission{
		UserRef:           in.UserID.String(),
		UserEmail:         in.UserEmail,
		UserName:          in.UserName,
		Amount:            in.Amount.Decimal,
		PaymentMethod:     in.PaymentMethod,
		PlanType:          in.PlanType,
		UTRNumber:         in.UTRNumber,
		PaymentDetails:    in.PaymentDetails,
		PaymentScreenshot: in.PaymentScreenshot,
		AutoApprove:       in.AutoApprove,
	})
	if err != nil {
		respond.Fail(c, err)
		return
	}
	message := MsgSubmitted
	if in.AutoApprove {
		message = MsgAutoApproved
	}
	respond.Success(c, message, gin.H{"auto_approved": in.AutoApprove})
}

// PaymentQR answers GET /api/premium/payment-qr?amount=&plan_type= with a PNG.
func (h *Handler) PaymentQR(c *gin.Context) {
	var amount request.Decimal
	_ = amount.UnmarshalJSON([]byte(c.Query("amount")))
	if !amount.Valid || !amount.IsPositive() {
		respond.Error(c, MsgInvalidAmount)
		return
	}
	note := "OAHelper premium"
	if plan := c.Query("plan_type"); plan != "" {
		note += " " + plan
	}
	png, err := h.payee.QR(amount.Decimal, note)
	if errors.Is(err, upi.ErrNotConfigured) {
		respond.Error(c, MsgUPIUnavailable)
		return
	}
	if err != nil {
		respond.Fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// Payments answers GET /api/premium/payments (admin).
func (h *Handler) Payments(c *gin.Context) {
	reqs, err := h.premium.Requests(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgRequestsRetrieved, reqs)
}

// DecidePayment answers PUT /api/premium/payments/:id (admin).
func (h *Handler) DecidePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if !request.Bind(c, &in) {
		return
	}
	if in.Status == "" {
		respond.Error(c, "Missing required field: status")
		return
	}
	if err := h.premium.DecidePayment(c.Request.Context(), id, in.Status, in.AdminNotes); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgRequestUpdated, nil)
}

// DeletePayment answers DELETE /api/premium/payments/:id (admin).
func (h *Handler) DeletePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.premium.DeleteRequest(c.Request.Context(), id); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgRequestDeleted, nil)
}

// ManualActivate answers POST /api/premium/manual-activate (admin).
func (h *Handler) ManualActivate(c *gin.Context) {
	var in struct {
		Email           string          `json:"email"`
		StartDate       string          `json:"start_date"`
		EndDate         string          `json:"end_date"`
		PlanType        string          `json:"plan_type"`
		Amount          request.Decimal `json:"amount"`
		Notes           string          `json:"notes"`
		ReplaceExisting *bool           `json:"replace_existing"`
	}
	if !request.Bind(c, &in) {
		return
	}
	res, err := h.premium.ManualActivate(c.Request.Context(), premium.ManualActivation{
		Email:           in.Email,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		PlanType:        in.PlanType,
		Amount:          in.Amount.Decimal,
		Notes:           in.Notes,
		ReplaceExisting: in.ReplaceExisting,
	})
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgActivated, res)
}

// CancelSubscription answers POST /api/premium/subscriptions/:id/cancel (admin).
func (h *Handler) CancelSubscription(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.premium.Cancel(c.Request.Context(), id); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgCanceled, nil)
}

// Users answers GET /api/premium/users (admin).
func (h *Handler) Users(c *gin.Context) {
	list, err := h.premium.PremiumUsers(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgUsersRetrieved, list)
}

// Stats answers GET /api/premium/stats (admin).
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.premium.Stats(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgStatsRetrieved, stats)
}

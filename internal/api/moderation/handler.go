package moderation

import (
	"strconv"

	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/moderation"

	"github.com/gin-gonic/gin"
)

const (
	MsgReportSubmitted   = "Report submitted successfully"
	MsgReportUpdated     = "Report status updated successfully"
	MsgReportDeleted     = "Report deleted successfully"
	MsgFeedbackSubmitted = "Thank you for your feedback!"
	MsgInvalidID         = "Invalid ID"
)

type Handler struct {
	svc *moderation.Service
}

func NewHandler(svc *moderation.Service) *Handler {
	return &Handler{svc: svc}
}

// SubmitReport answers POST /api/reports.
func (h *Handler) SubmitReport(c *gin.Context) {
	var in struct {
		Type         string      `json:"type"`
		QuestionID   request.Int `json:"question_id"`
		UserEmail    string      `json:"user_email"`
		Description  string      `json:"description"`
		QuestionLink string      `json:"question_link"`
	}
	if !request.Bind(c, &in) {
		return
	}
	err := h.svc.SubmitReport(c.Request.Context(), moderation.NewReport{
		Type:         in.Type,
		QuestionID:   int64(in.QuestionID),
		UserEmail:    in.UserEmail,
		Description:  in.Description,
		QuestionLink: in.QuestionLink,
	})
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgReportSubmitted, nil)
}

// SubmitFeedback answers POST /api/feedback. The user agent falls back to
// the request header.
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var in struct {
		UserID       request.Ref `json:"user_id"`
		UserEmail    string      `json:"user_email"`
		FeedbackType string      `json:"feedback_type"`
		FeedbackText string      `json:"feedback_text"`
		PageURL      string      `json:"page_url"`
		UserAgent    string      `json:"user_agent"`
	}
	if !request.Bind(c, &in) {
		return
	}
	if in.UserAgent == "" {
		in.UserAgent = c.Request.UserAgent()
	}
	err := h.svc.SubmitFeedback(c.Request.Context(), moderation.NewFeedback{
		UserID:    in.UserID.String(),
		UserEmail: in.UserEmail,
		Type:      in.FeedbackType,
		Text:      in.FeedbackText,
		PageURL:   in.PageURL,
		UserAgent: in.UserAgent,
	})
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgFeedbackSubmitted, nil)
}

func (h *Handler) Reports(c *gin.Context) {
	list, err := h.svc.Reports(c.Request.Context(), c.Query("type"), c.Query("status"))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", list)
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, MsgInvalidID)
		return 0, false
	}
	return id, true
}

func (h *Handler) UpdateReport(c *gin.Context) {
	id, ok := reportID(c)
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
	if err := h.svc.UpdateReport(c.Request.Context(), c.Param("table"), id, in.Status, in.AdminNotes); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgReportUpdated, nil)
}

func (h *Handler) DeleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteReport(c.Request.Context(), c.Param("table"), id); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgReportDeleted, nil)
}

// Feedback pages through submitted feedback (admin).
func (h *Handler) Feedback(c *gin.Context) {
	page := int(request.QueryInt(c, "page"))
	limit := int(request.QueryInt(c, "limit"))
	list, pagination, err := h.svc.Feedback(c.Request.Context(), page, limit, c.Query("status"), c.Query("type"))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.With(c, "Feedback retrieved", gin.H{"data": list, "pagination": pagination})
}

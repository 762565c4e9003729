package solutions

import (
	"strconv"

	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/quota"

	"github.com/gin-gonic/gin"
)

const (
	MsgUserIDRequired   = "User ID is required"
	MsgQuestionRequired = "User ID and Question ID are required"
	MsgRequestSubmitted = "Solution request submitted successfully"
	MsgSolutionSent     = "Solution code sent successfully"
	MsgRequestUpdated   = "Solution request updated successfully"
	MsgInvalidID        = "Invalid ID"
)

type Handler struct {
	quota *quota.Service
}

func NewHandler(q *quota.Service) *Handler {
	return &Handler{quota: q}
}

func (h *Handler) DailyCount(c *gin.Context) {
	ref := c.Query("user_id")
	if ref == "" {
		respond.Error(c, MsgUserIDRequired)
		return
	}
	st, err := h.quota.DailyStatus(c.Request.Context(), ref)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", st)
}

func (h *Handler) Solution(c *gin.Context) {
	ref, qid := c.Query("user_id"), request.QueryInt(c, "question_id")
	if ref == "" || qid == 0 {
		respond.Error(c, MsgQuestionRequired)
		return
	}
	code, err := h.quota.Solution(c.Request.Context(), ref, qid)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", gin.H{"question_id": qid, "solution_code": code})
}

func (h *Handler) RequestStatus(c *gin.Context) {
	ref, qid := c.Query("user_id"), request.QueryInt(c, "question_id")
	if ref == "" || qid == 0 {
		respond.Error(c, MsgQuestionRequired)
		return
	}
	st, err := h.quota.RequestStatus(c.Request.Context(), ref, qid)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", st)
}

func (h *Handler) Request(c *gin.Context) {
	var in struct {
		UserID     request.Ref `json:"user_id"`
		QuestionID request.Int `json:"question_id"`
		CompanyID  request.Int `json:"company_id"`
		Language   string      `json:"language"`
	}
	if !request.Bind(c, &in) {
		return
	}
	err := h.quota.RequestSolution(c.Request.Context(), quota.SolutionRequestInput{
		UserRef:    in.UserID.String(),
		QuestionID: int64(in.QuestionID),
		CompanyID:  int64(in.CompanyID),
		Language:   in.Language,
	})
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgRequestSubmitted, nil)
}

// Requests lists every queued request (admin).
func (h *Handler) Requests(c *gin.Context) {
	list, err := h.quota.Requests(c.Request.Context())
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", list)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, MsgInvalidID)
		return 0, false
	}
	return id, true
}

// Send mails the solution to the requester and marks the request sent (admin).
func (h *Handler) Send(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		SolutionCode string `json:"solution_code"`
	}
	if !request.Bind(c, &in) {
		return
	}
	if err := h.quota.SendSolution(c.Request.Context(), id, in.SolutionCode); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgSolutionSent, nil)
}

func (h *Handler) Update(c *gin.Context) {
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
	if err := h.quota.UpdateRequest(c.Request.Context(), id, in.Status, in.AdminNotes); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgRequestUpdated, nil)
}

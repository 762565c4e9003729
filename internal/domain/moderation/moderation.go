// Package moderation stores user reports about questions and solutions and
// free-form product feedback.
package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/supabase"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	QuestionReports = "question_reports"
	SolutionReports = "solution_reports"
	feedbackTable   = "feedback"
)

// ReportCooldown is how long the same address must wait before reporting
// the same question again.
const ReportCooldown = 24 * time.Hour

const (
	MsgAllFieldsRequired = "All fields are required"
	MsgInvalidType       = "Invalid report type"
	MsgInvalidEmail      = "Invalid email address"
	MsgRecentlyReported  = "You have already reported this issue recently. Please wait 24 hours before reporting again."
	MsgReportFailed      = "Failed to submit report"
	MsgInvalidTable      = "Invalid table name"
	MsgInvalidStatus     = "Invalid status"
	MsgFeedbackType      = "Invalid feedback type"
	MsgFeedbackTooShort  = "Feedback text must be at least 10 characters long"
	MsgFeedbackTooLong   = "Feedback text must be less than 2000 characters"
)

var reportTables = map[string]string{
	"question": QuestionReports,
	"solution": SolutionReports,
}

var validate = validator.New()

var reportStatuses = map[string]bool{"pending": true, "in_progress": true, "resolved": true, "dismissed": true}

var feedbackTypes = map[string]bool{
	"general": true, "bug": true, "feature": true, "improvement": true, "code_editor": true, "test_cases": true,
}

type Report struct {
	ID           int64          `json:"id"`
	QuestionID   int64          `json:"question_id"`
	UserEmail    string         `json:"user_email"`
	Description  string         `json:"description"`
	QuestionLink string         `json:"question_link"`
	Status       string         `json:"status,omitempty"`
	AdminNotes   *string        `json:"admin_notes,omitempty"`
	CreatedAt    supabase.Time  `json:"created_at"`
	UpdatedAt    *supabase.Time `json:"updated_at,omitempty"`
	TableName    string         `json:"table_name"`
}

type NewReport struct {
	Type         string
	QuestionID   int64
	UserEmail    string
	Description  string
	QuestionLink string
}

type Feedback struct {
	ID           int64         `json:"id"`
	UserID       *string       `json:"user_id"`
	UserEmail    *string       `json:"user_email"`
	FeedbackType string        `json:"feedback_type"`
	FeedbackText string        `json:"feedback_text"`
	PageURL      *string       `json:"page_url"`
	UserAgent    *string       `json:"user_agent"`
	Status       *string       `json:"status,omitempty"`
	CreatedAt    supabase.Time `json:"created_at"`
}

type NewFeedback struct {
	UserID    string
	UserEmail string
	Type      string
	Text      string
	PageURL   string
	UserAgent string
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type Service struct {
	db  *supabase.Client
	log *logrus.Entry
	now func() time.Time
}

func NewService(db *supabase.Client, log *logrus.Entry, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, log: log, now: now}
}

// TableFor maps a report type (question or solution) or a table name to the
// backing table.
func TableFor(name string) (string, bool) {
	if t, ok := reportTables[name]; ok {
		return t, true
	}
	if name == QuestionReports || name == SolutionReports {
		return name, true
	}
	return "", false
}

func (s *Service) SubmitReport(ctx context.Context, in NewReport) error {
	in.UserEmail = strings.TrimSpace(in.UserEmail)
	in.Description = strings.TrimSpace(in.Description)
	if in.Type == "" || in.QuestionID == 0 || in.UserEmail == "" || in.Description == "" || strings.TrimSpace(in.QuestionLink) == "" {
		return apperror.New(MsgAllFieldsRequired)
	}
	table, ok := reportTables[in.Type]
	if !ok {
		return apperror.New(MsgInvalidType)
	}
	if err := validate.Var(in.UserEmail, "email"); err != nil {
		return apperror.New(MsgInvalidEmail)
	}

	var recent []Report
	q := supabase.NewQuery().Select("id").
		Eq("question_id", in.QuestionID).
		Eq("user_email", in.UserEmail).
		Where(supabase.Gt("created_at", s.now().Add(-ReportCooldown))).
		Limit(1)
	if err := s.db.Select(ctx, table, q, &recent); err != nil {
		return fmt.Errorf("check recent reports: %w", err)
	}
	if len(recent) > 0 {
		return apperror.New(MsgRecentlyReported)
	}

	payload := map[string]any{
		"question_id":   in.QuestionID,
		"user_email":    in.UserEmail,
		"description":   in.Description,
		"question_link": in.QuestionLink,
		"created_at":    supabase.NewTime(s.now()),
	}
	if err := s.db.Insert(ctx, table, payload); err != nil {
		s.log.WithError(err).WithField("table", table).Error("moderation: report insert failed")
		return apperror.New(MsgReportFailed)
	}
	return nil
}

// Reports merges both report tables newest first. Empty kind or status
// means all.
func (s *Service) Reports(ctx context.Context, kind, status string) ([]Report, error) {
	if kind == "all" {
		kind = ""
	}
	if status == "all" {
		status = ""
	}
	var tables []string
	switch kind {
	case "":
		tables = []string{QuestionReports, SolutionReports}
	default:
		t, ok := reportTables[kind]
		if !ok {
			return nil, apperror.New(MsgInvalidType)
		}
		tables = []string{t}
	}

	out := []Report{}
	for _, table := range tables {
		q := supabase.NewQuery().Order("created_at", true)
		if status != "" {
			q.Eq("status", status)
		}
		var rows []Report
		if err := s.db.Select(ctx, table, q, &rows); err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		for i := range rows {
			rows[i].TableName = table
		}
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	return out, nil
}

func (s *Service) UpdateReport(ctx context.Context, tableName string, id int64, status, notes string) error {
	table, ok := TableFor(tableName)
	if !ok {
		return apperror.New(MsgInvalidTable)
	}
	if !reportStatuses[status] {
		return apperror.New(MsgInvalidStatus)
	}
	payload := map[string]any{"status": status, "admin_notes": notes, "updated_at": supabase.NewTime(s.now())}
	if err := s.db.Patch(ctx, table, supabase.NewQuery().Eq("id", id), payload); err != nil {
		s.log.WithError(err).WithField("report_id", id).Error("moderation: report update failed")
		return apperror.New("Failed to update report status")
	}
	return nil
}

func (s *Service) DeleteReport(ctx context.Context, tableName string, id int64) error {
	table, ok := TableFor(tableName)
	if !ok {
		return apperror.New(MsgInvalidTable)
	}
	if err := s.db.Delete(ctx, table, supabase.NewQuery().Eq("id", id)); err != nil {
		s.log.WithError(err).WithField("report_id", id).Error("moderation: report delete failed")
		return apperror.New("Failed to delete report")
	}
	return nil
}

func (s *Service) SubmitFeedback(ctx context.Context, in NewFeedback) error {
	text := strings.TrimSpace(in.Text)
	switch {
	case in.Type == "":
		return apperror.New("Missing required field: feedback_type")
	case text == "":
		return apperror.New("Missing required field: feedback_text")
	case !feedbackTypes[in.Type]:
		return apperror.New(MsgFeedbackType)
	case utf8.RuneCountInString(text) < 10:
		return apperror.New(MsgFeedbackTooShort)
	case utf8.RuneCountInString(text) > 2000:
		return apperror.New(MsgFeedbackTooLong)
	}
	payload := map[string]any{
		"user_id":       nullable(in.UserID),
		"user_email":    nullable(strings.TrimSpace(in.UserEmail)),
		"feedback_type": in.Type,
		"feedback_text": text,
		"page_url":      nullable(in.PageURL),
		"user_agent":    nullable(in.UserAgent),
		"created_at":    supabase.NewTime(s.now()),
	}
	if err := s.db.Insert(ctx, feedbackTable, payload); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Feedback pages through feedback newest first.
func (s *Service) Feedback(ctx context.Context, page, limit int, status, kind string) ([]Feedback, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	filter := supabase.NewQuery()
	if status != "" {
		filter.Eq("status", status)
	}
	if kind != "" {
		filter.Eq("feedback_type", kind)
	}
	total := s.db.Count(ctx, feedbackTable, filter)

	out := []Feedback{}
	q := filter.Clone().Order("created_at", true).Limit(limit).Offset((page - 1) * limit)
	if err := s.db.Select(ctx, feedbackTable, q, &out); err != nil {
		return nil, Pagination{}, fmt.Errorf("list feedback: %w", err)
	}
	return out, Pagination{Page: page, Limit: limit, Total: total, TotalPages: (total + limit - 1) / limit}, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

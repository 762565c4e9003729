package quota

import (
	"context"
	"fmt"
	"time"

	"oahelper-api/internal/supabase"
)

const (
	viewsTable     = "user_solution_views"
	questionsTable = "questions"
	requestsTable  = "solution_requests"
)

const (
	RequestPending = "pending"
	RequestSent    = "sent"
)

type View struct {
	ID           int64          `json:"id"`
	UserID       string         `json:"user_id"`
	QuestionID   int64          `json:"question_id"`
	CompanyID    *int64         `json:"company_id"`
	ViewCount    int            `json:"view_count"`
	LastViewedAt *supabase.Time `json:"last_viewed_at"`
}

type Question struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	CompanyID   *int64 `json:"company_id"`
	SolutionCPP string `json:"solution_cpp"`
}

type SolutionRequest struct {
	ID                int64          `json:"id"`
	UserID            string         `json:"user_id"`
	QuestionID        int64          `json:"question_id"`
	CompanyID         int64          `json:"company_id"`
	RequestDate       string         `json:"request_date"`
	RequestedLanguage string         `json:"requested_language"`
	Status            string         `json:"status"`
	SolutionCode      *string        `json:"solution_code,omitempty"`
	AdminNotes        *string        `json:"admin_notes"`
	SentAt            *supabase.Time `json:"sent_at"`
	SentBy            *string        `json:"sent_by"`
	CreatedAt         supabase.Time  `json:"created_at"`
	UpdatedAt         *supabase.Time `json:"updated_at"`
}

// Store covers solution views, question solutions and admin-fulfilled
// solution requests.
type Store struct {
	db  *supabase.Client
	now func() time.Time
}

func NewStore(db *supabase.Client, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

func (s *Store) View(ctx context.Context, userID string, questionID int64) (*View, error) {
	var v View
	q := supabase.NewQuery().Select("id,view_count").Eq("user_id", userID).Eq("question_id", questionID)
	found, err := s.db.SelectOne(ctx, viewsTable, q, &v)
	if err != nil {
		return nil, fmt.Errorf("solution view of %s/%d: %w", userID, questionID, err)
	}
	if !found {
		return nil, nil
	}
	return &v, nil
}

func (s *Store) RecordFirstView(ctx context.Context, userID string, questionID int64, companyID *int64) error {
	payload := map[string]any{
		"user_id":        userID,
		"question_id":    questionID,
		"company_id":     companyID,
		"view_count":     1,
		"last_viewed_at": supabase.NewTime(s.now()),
	}
	if err := s.db.Insert(ctx, viewsTable, payload); err != nil {
		return fmt.Errorf("record solution view: %w", err)
	}
	return nil
}

func (s *Store) RecordRepeatView(ctx context.Context, v *View) error {
	payload := map[string]any{"view_count": v.ViewCount + 1, "last_viewed_at": supabase.NewTime(s.now())}
	if err := s.db.Patch(ctx, viewsTable, supabase.NewQuery().Eq("id", v.ID), payload); err != nil {
		return fmt.Errorf("bump solution view %d: %w", v.ID, err)
	}
	return nil
}

func (s *Store) Question(ctx context.Context, id int64) (*Question, error) {
	var q Question
	found, err := s.db.SelectOne(ctx, questionsTable, supabase.NewQuery().Select("id,title,solution_cpp,company_id").Eq("id", id), &q)
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &q, nil
}

func (s *Store) RequestedOn(ctx context.Context, userID string, questionID int64, day string) bool {
	q := supabase.NewQuery().Eq("user_id", userID).Eq("question_id", questionID).Eq("request_date", day)
	return s.db.Count(ctx, requestsTable, q) > 0
}

func (s *Store) InsertRequest(ctx context.Context, userID string, questionID, companyID int64, language, day string) error {
	payload := map[string]any{
		"user_id":            userID,
		"question_id":        questionID,
		"company_id":         companyID,
		"request_date":       day,
		"requested_language": language,
		"status":             RequestPending,
		"created_at":         supabase.NewTime(s.now()),
	}
	if err := s.db.Insert(ctx, requestsTable, payload); err != nil {
		return fmt.Errorf("insert solution request: %w", err)
	}
	return nil
}

func (s *Store) Request(ctx context.Context, id int64) (*SolutionRequest, error) {
	var r SolutionRequest
	found, err := s.db.SelectOne(ctx, requestsTable, supabase.NewQuery().Eq("id", id), &r)
	if err != nil {
		return nil, fmt.Errorf("load solution request %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) Requests(ctx context.Context) ([]SolutionRequest, error) {
	out := []SolutionRequest{}
	if err := s.db.Select(ctx, requestsTable, supabase.NewQuery().Order("created_at", true), &out); err != nil {
		return nil, fmt.Errorf("list solution requests: %w", err)
	}
	return out, nil
}

func (s *Store) MarkSent(ctx context.Context, id int64, code string) error {
	payload := map[string]any{
		"status":        RequestSent,
		"solution_code": code,
		"sent_at":       supabase.NewTime(s.now()),
		"sent_by":       "admin",
	}
	if err := s.db.Patch(ctx, requestsTable, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("mark solution request %d sent: %w", id, err)
	}
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, id int64, status, notes string) error {
	payload := map[string]any{"status": status, "admin_notes": nullable(notes), "updated_at": supabase.NewTime(s.now())}
	if err := s.db.Patch(ctx, requestsTable, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("update solution request %d: %w", id, err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

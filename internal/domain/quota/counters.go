package quota

import (
	"context"
	"fmt"
	"time"

	"oahelper-api/internal/supabase"
)

const (
	dailyTable  = "user_daily_requests"
	accessTable = "user_question_access"
)

// DefaultQuestionAccess is reported for a (user, company) pair with no row
// yet: the first question counts as already used.
const DefaultQuestionAccess = 1

// Counters keeps the per-day solution counter and the per-company question
// counter. User ids are stored as text.
type Counters interface {
	DailyCount(ctx context.Context, userID, day string) (int, error)
	IncrementDaily(ctx context.Context, userID, day string) (int, error)
	QuestionAccess(ctx context.Context, userID string, companyID int64) (int, error)
	IncrementQuestionAccess(ctx context.Context, userID string, companyID int64) (int, error)
}

// RESTCounters increments with read-modify-write over the REST interface.
// Two concurrent increments for the same key can both read n and both
// write n+1; SQLCounters does not have this race.
type RESTCounters struct {
	db  *supabase.Client
	now func() time.Time
}

func NewRESTCounters(db *supabase.Client, now func() time.Time) *RESTCounters {
	if now == nil {
		now = time.Now
	}
	return &RESTCounters{db: db, now: now}
}

type dailyRow struct {
	ID           int64 `json:"id"`
	RequestCount int   `json:"request_count"`
}

func dailyKey(userID, day string) *supabase.Query {
	return supabase.NewQuery().Eq("user_id", userID).Eq("request_date", day)
}

func (c *RESTCounters) DailyCount(ctx context.Context, userID, day string) (int, error) {
	var row dailyRow
	found, err := c.db.SelectOne(ctx, dailyTable, dailyKey(userID, day).Select("id,request_count"), &row)
	if err != nil {
		return 0, fmt.Errorf("daily count for %s: %w", userID, err)
	}
	if !found {
		return 0, nil
	}
	return row.RequestCount, nil
}

func (c *RESTCounters) IncrementDaily(ctx context.Context, userID, day string) (int, error) {
	var row dailyRow
	found, err := c.db.SelectOne(ctx, dailyTable, dailyKey(userID, day).Select("id,request_count"), &row)
	if err != nil {
		return 0, fmt.Errorf("daily count for %s: %w", userID, err)
	}
	now := supabase.NewTime(c.now())
	if found {
		next := row.RequestCount + 1
		if err := c.db.Patch(ctx, dailyTable, dailyKey(userID, day), map[string]any{"request_count": next, "updated_at": now}); err != nil {
			return 0, fmt.Errorf("bump daily count for %s: %w", userID, err)
		}
		return next, nil
	}
	payload := map[string]any{
		"user_id":       userID,
		"request_date":  day,
		"request_count": 1,
		"created_at":    now,
		"updated_at":    now,
	}
	if err := c.db.Insert(ctx, dailyTable, payload); err != nil {
		return 0, fmt.Errorf("start daily count for %s: %w", userID, err)
	}
	return 1, nil
}

func (c *RESTCounters) QuestionAccess(ctx context.Context, userID string, companyID int64) (int, error) {
	var row struct {
		QuestionsAccessed int `json:"questions_accessed"`
	}
	q := supabase.NewQuery().Select("id,questions_accessed").Eq("user_id", userID).Eq("company_id", companyID)
	found, err := c.db.SelectOne(ctx, accessTable, q, &row)
	if err != nil {
		return 0, fmt.Errorf("question access for %s: %w", userID, err)
	}
	if !found {
		return DefaultQuestionAccess, nil
	}
	return row.QuestionsAccessed, nil
}

func (c *RESTCounters) IncrementQuestionAccess(ctx context.Context, userID string, companyID int64) (int, error) {
	current, err := c.QuestionAccess(ctx, userID, companyID)
	if err != nil {
		return 0, err
	}
	next := current + 1
	payload := map[string]any{
		"user_id":            userID,
		"company_id":         companyID,
		"questions_accessed": next,
		"updated_at":         supabase.NewTime(c.now()),
	}
	if err := c.db.Upsert(ctx, accessTable, payload, "user_id", "company_id"); err != nil {
		return 0, fmt.Errorf("store question access for %s: %w", userID, err)
	}
	return next, nil
}

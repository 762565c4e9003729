package premium

import (
	"context"
	"fmt"
	"time"

	"oahelper-api/internal/supabase"
)

const (
	subscriptionsTable = "premium_subscriptions"
	requestsTable      = "payment_requests"
)

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

// Active returns the authoritative subscription at the given instant: status
// active, end_date strictly after at, latest end_date first. nil when none.
func (s *Store) Active(ctx context.Context, userID int64, at time.Time) (*Subscription, error) {
	q := supabase.NewQuery().
		Eq("user_id", userID).
		Eq("status", StatusActive).
		Where(supabase.Gt("end_date", at)).
		Order("end_date", true).
		Limit(1)
	var rows []Subscription
	if err := s.db.Select(ctx, subscriptionsTable, q, &rows); err != nil {
		return nil, fmt.Errorf("active subscription for user %d: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type NewSubscription struct {
	UserID int64
	Type   string
	Amount any
	Start  time.Time
	End    time.Time
}

func (s *Store) Insert(ctx context.Context, in NewSubscription) (*Subscription, error) {
	now := supabase.NewTime(s.now())
	payload := map[string]any{
		"user_id":           in.UserID,
		"subscription_type": in.Type,
		"amount":            in.Amount,
		"status":            StatusActive,
		"start_date":        supabase.NewTime(in.Start),
		"end_date":          supabase.NewTime(in.End),
		"created_at":        now,
		"updated_at":        now,
	}
	var sub Subscription
	if err := s.db.InsertReturning(ctx, subscriptionsTable, payload, &sub); err != nil {
		return nil, fmt.Errorf("insert subscription for user %d: %w", in.UserID, err)
	}
	return &sub, nil
}

// CancelActiveExcept cancels every active subscription of the user other
// than keep.
func (s *Store) CancelActiveExcept(ctx context.Context, userID, keep int64) error {
	q := supabase.NewQuery().Eq("user_id", userID).Eq("status", StatusActive).Where(supabase.Neq("id", keep))
	if err := s.db.Patch(ctx, subscriptionsTable, q, s.cancelPayload()); err != nil {
		return fmt.Errorf("cancel subscriptions of user %d: %w", userID, err)
	}
	return nil
}

// Cancel reports false when no subscription has id.
func (s *Store) Cancel(ctx context.Context, id int64) (bool, error) {
	var rows []Subscription
	if err := s.db.PatchReturning(ctx, subscriptionsTable, supabase.NewQuery().Eq("id", id), s.cancelPayload(), &rows); err != nil {
		return false, fmt.Errorf("cancel subscription %d: %w", id, err)
	}
	return len(rows) > 0, nil
}

func (s *Store) cancelPayload() map[string]any {
	return map[string]any{"status": StatusCanceled, "updated_at": supabase.NewTime(s.now())}
}

func (s *Store) SetEndDate(ctx context.Context, id int64, end time.Time) error {
	payload := map[string]any{"end_date": supabase.NewTime(end), "updated_at": supabase.NewTime(s.now())}
	if err := s.db.Patch(ctx, subscriptionsTable, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("extend subscription %d: %w", id, err)
	}
	return nil
}

// ListActive returns rows with status active regardless of end_date.
func (s *Store) ListActive(ctx context.Context) ([]Subscription, error) {
	out := []Subscription{}
	q := supabase.NewQuery().Eq("status", StatusActive).Order("end_date", true)
	if err := s.db.Select(ctx, subscriptionsTable, q, &out); err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	return out, nil
}

func (s *Store) ListForUser(ctx context.Context, userID int64) ([]Subscription, error) {
	out := []Subscription{}
	q := supabase.NewQuery().Eq("user_id", userID).Order("created_at", true)
	if err := s.db.Select(ctx, subscriptionsTable, q, &out); err != nil {
		return nil, fmt.Errorf("list subscriptions of user %d: %w", userID, err)
	}
	return out, nil
}

// CountActiveSince counts active rows that started at or after since.
func (s *Store) CountActiveSince(ctx context.Context, since time.Time) int {
	q := supabase.NewQuery().Eq("status", StatusActive).Where(supabase.Gte("start_date", since))
	return s.db.Count(ctx, subscriptionsTable, q)
}

func (s *Store) CountActive(ctx context.Context, at time.Time) int {
	q := supabase.NewQuery().Eq("status", StatusActive).Where(supabase.Gt("end_date", at))
	return s.db.Count(ctx, subscriptionsTable, q)
}

type NewPaymentRequest struct {
	UserID            int64
	UserEmail         string
	UserName          string
	Amount            any
	PaymentMethod     string
	PlanType          string
	UTRNumber         string
	PaymentDetails    string
	PaymentScreenshot string
	Status            string
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) InsertRequest(ctx context.Context, in NewPaymentRequest) (*PaymentRequest, error) {
	payload := map[string]any{
		"user_id":            in.UserID,
		"user_email":         in.UserEmail,
		"user_name":          in.UserName,
		"amount":             in.Amount,
		"payment_method":     in.PaymentMethod,
		"plan_type":          nullable(in.PlanType),
		"utr_number":         nullable(in.UTRNumber),
		"payment_details":    nullable(in.PaymentDetails),
		"payment_screenshot": nullable(in.PaymentScreenshot),
		"status":             in.Status,
		"submitted_at":       supabase.NewTime(s.now()),
	}
	var req PaymentRequest
	if err := s.db.InsertReturning(ctx, requestsTable, payload, &req); err != nil {
		return nil, fmt.Errorf("insert payment request: %w", err)
	}
	return &req, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*PaymentRequest, error) {
	var req PaymentRequest
	found, err := s.db.SelectOne(ctx, requestsTable, supabase.NewQuery().Eq("id", id), &req)
	if err != nil {
		return nil, fmt.Errorf("load payment request %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &req, nil
}

// DecideRequest moves a pending request to status. The pending filter makes
// the transition happen at most once; nil means nothing was pending.
func (s *Store) DecideRequest(ctx context.Context, id int64, status, notes string) (*PaymentRequest, error) {
	q := supabase.NewQuery().Eq("id", id).Eq("status", RequestPending)
	payload := map[string]any{
		"status":       status,
		"admin_notes":  nullable(notes),
		"processed_at": supabase.NewTime(s.now()),
		"processed_by": "admin",
	}
	var rows []PaymentRequest
	if err := s.db.PatchReturning(ctx, requestsTable, q, payload, &rows); err != nil {
		return nil, fmt.Errorf("decide payment request %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ReopenRequest puts a decided request back to pending.
func (s *Store) ReopenRequest(ctx context.Context, id int64) error {
	payload := map[string]any{"status": RequestPending, "processed_at": nil, "processed_by": nil}
	if err := s.db.Patch(ctx, requestsTable, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("reopen payment request %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id int64) error {
	if err := s.db.Delete(ctx, requestsTable, supabase.NewQuery().Eq("id", id)); err != nil {
		return fmt.Errorf("delete payment request %d: %w", id, err)
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context) ([]PaymentRequest, error) {
	out := []PaymentRequest{}
	if err := s.db.Select(ctx, requestsTable, supabase.NewQuery().Order("submitted_at", true), &out); err != nil {
		return nil, fmt.Errorf("list payment requests: %w", err)
	}
	return out, nil
}

func (s *Store) CountRequests(ctx context.Context, status string) int {
	q := supabase.NewQuery()
	if status != "" {
		q.Eq("status", status)
	}
	return s.db.Count(ctx, requestsTable, q)
}

package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
)

const (
	table       = "Users"
	bannedTable = "banned_emails"
)

// Store reads and writes users and bans through the REST client.
type Store struct {
	db        *supabase.Client
	rpcSecret string
	now       func() time.Time
}

func NewStore(db *supabase.Client, rpcSecret string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, rpcSecret: rpcSecret, now: now}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) one(ctx context.Context, q *supabase.Query) (*User, error) {
	var u User
	found, err := s.db.SelectOne(ctx, table, q, &u)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// GetByID returns nil, nil when no user has id.
func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.one(ctx, supabase.NewQuery().Eq("id", id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.one(ctx, supabase.NewQuery().Eq("email", NormalizeEmail(email)))
}

// Resolve accepts a numeric id or an email address.
func (s *Store) Resolve(ctx context.Context, ref string) (*User, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetByID(ctx, id)
	}
	if strings.Contains(ref, "@") {
		return s.GetByEmail(ctx, ref)
	}
	return nil, nil
}

func (s *Store) Create(ctx context.Context, in NewUser) (*User, error) {
	now := supabase.NewTime(s.now())
	payload := map[string]any{
		"name":              strings.TrimSpace(in.Name),
		"email":             NormalizeEmail(in.Email),
		"password":          in.PasswordHash,
		"college":           strings.TrimSpace(in.College),
		"role":              RoleUser,
		"verified":          false,
		"verification_code": in.VerificationCode,
		"oacoins":           0,
		"created_at":        now,
		"updated_at":        now,
	}
	var u User
	if err := s.db.InsertReturning(ctx, table, payload, &u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Update patches the user and stamps updated_at.
func (s *Store) Update(ctx context.Context, id int64, fields map[string]any) error {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["updated_at"] = supabase.NewTime(s.now())
	if err := s.db.Patch(ctx, table, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

func (s *Store) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return s.Update(ctx, id, map[string]any{"oacoins": balance})
}

// List pages through users newest first, optionally filtered by name or email.
func (s *Store) List(ctx context.Context, page, limit int, search string) ([]User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	filter := supabase.NewQuery()
	if search = strings.TrimSpace(search); search != "" {
		filter.Or(supabase.ILike("name", search), supabase.ILike("email", search))
	}
	total := s.db.Count(ctx, table, filter)

	q := filter.Clone().
		Select("id,name,email,college,role,verified,oacoins,created_at,updated_at").
		Order("created_at", true).
		Limit(limit).
		Offset((page - 1) * limit)
	var out []User
	if err := s.db.Select(ctx, table, q, &out); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

// ByIDs loads the users with the given ids keyed by id.
func (s *Store) ByIDs(ctx context.Context, ids []int64) (map[int64]User, error) {
	out := make(map[int64]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	var rows []User
	q := supabase.NewQuery().Select("id,name,email").Where(supabase.In("id", values...))
	if err := s.db.Select(ctx, table, q, &rows); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// Count returns the number of users matching filters, 0 when unknown.
func (s *Store) Count(ctx context.Context, filters ...supabase.Filter) int {
	return s.db.Count(ctx, table, supabase.NewQuery().Where(filters...))
}

// CreatedSince lists the creation times of users that signed up at or after since.
func (s *Store) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var rows []struct {
		CreatedAt supabase.Time `json:"created_at"`
	}
	q := supabase.NewQuery().Select("created_at").Where(supabase.Gte("created_at", since))
	if err := s.db.Select(ctx, table, q, &rows); err != nil {
		return nil, fmt.Errorf("load signups: %w", err)
	}
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.CreatedAt.Time
	}
	return out, nil
}

// IsBanned checks the banned_emails table directly.
func (s *Store) IsBanned(ctx context.Context, email string) (bool, error) {
	var rows []Ban
	q := supabase.NewQuery().Select("id").Eq("email", NormalizeEmail(email)).Limit(1)
	if err := s.db.Select(ctx, bannedTable, q, &rows); err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return len(rows) > 0, nil
}

// CheckBan asks the is_email_banned procedure.
func (s *Store) CheckBan(ctx context.Context, email string) (bool, error) {
	var banned bool
	if err := s.db.RPC(ctx, "is_email_banned", map[string]any{"check_email": NormalizeEmail(email)}, &banned); err != nil {
		return false, fmt.Errorf("is_email_banned: %w", err)
	}
	return banned, nil
}

func (s *Store) ListBans(ctx context.Context) ([]Ban, error) {
	var bans []Ban
	if err := s.db.RPC(ctx, "admin_list_banned_emails", map[string]any{"secret_key": s.rpcSecret}, &bans); err != nil {
		return nil, fmt.Errorf("admin_list_banned_emails: %w", err)
	}
	if bans == nil {
		bans = []Ban{}
	}
	return bans, nil
}

func (s *Store) Ban(ctx context.Context, email string) error {
	params := map[string]any{
		"email_input": NormalizeEmail(email),
		"is_ban":      true,
		"secret_key":  s.rpcSecret,
	}
	if err := s.db.RPC(ctx, "admin_manage_ban", params, nil); err != nil {
		return fmt.Errorf("admin_manage_ban: %w", err)
	}
	return nil
}

func (s *Store) Unban(ctx context.Context, id int64) error {
	params := map[string]any{"id_input": id, "secret_key": s.rpcSecret}
	if err := s.db.RPC(ctx, "admin_unban_by_id", params, nil); err != nil {
		return fmt.Errorf("admin_unban_by_id: %w", err)
	}
	return nil
}

// CountBans returns the number of banned addresses.
func (s *Store) CountBans(ctx context.Context) int {
	return s.db.Count(ctx, bannedTable, nil)
}

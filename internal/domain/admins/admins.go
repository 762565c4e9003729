// Package admins authenticates operators against admin_credentials.
package admins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/supabase"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	table = "admin_credentials"

	RoleAdmin = "admin"

	MsgPasswordRequired   = "Password is required"
	MsgInvalidCredentials = "Invalid credentials"
	MsgBothPasswords      = "Both old and new passwords are required"
	MsgWrongPassword      = "Current password is incorrect"
	MsgPasswordTooShort   = "New password must be at least 5 characters long"
	MsgAdminNotFound      = "Admin not found"
	MsgChangeFailed       = "Failed to change password"

	minPasswordLength = 5
)

type Admin struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"password_hash,omitempty"`
	IsActive     bool           `json:"is_active"`
	LastLogin    *supabase.Time `json:"last_login"`
	CreatedAt    supabase.Time  `json:"created_at"`
}

// Info is what the API returns about an admin.
type Info struct {
	ID        int64          `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	LastLogin *supabase.Time `json:"last_login"`
	CreatedAt supabase.Time  `json:"created_at"`
}

func (a *Admin) Info() Info {
	return Info{ID: a.ID, Username: a.Username, Email: a.Email, Role: RoleAdmin, LastLogin: a.LastLogin, CreatedAt: a.CreatedAt}
}

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

// ByUsername returns nil, nil for unknown or inactive accounts.
func (s *Store) ByUsername(ctx context.Context, username string) (*Admin, error) {
	var a Admin
	q := supabase.NewQuery().Eq("username", username).Eq("is_active", true)
	found, err := s.db.SelectOne(ctx, table, q, &a)
	if err != nil {
		return nil, fmt.Errorf("load admin %q: %w", username, err)
	}
	if !found {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) StampLogin(ctx context.Context, id int64) error {
	now := supabase.NewTime(s.now())
	payload := map[string]any{"last_login": now, "updated_at": now}
	if err := s.db.Patch(ctx, table, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("stamp admin login %d: %w", id, err)
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	payload := map[string]any{"password_hash": hash, "updated_at": supabase.NewTime(s.now())}
	if err := s.db.Patch(ctx, table, supabase.NewQuery().Eq("id", id), payload); err != nil {
		return fmt.Errorf("update admin password %d: %w", id, err)
	}
	return nil
}

type Service struct {
	store *Store
	log   *logrus.Entry
}

func NewService(store *Store, log *logrus.Entry) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) verify(ctx context.Context, username, password string) (*Admin, error) {
	a, err := s.store.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if a == nil || a.PasswordHash == "" {
		return nil, apperror.New(MsgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.New(MsgInvalidCredentials)
	}
	return a, nil
}

// Login checks the password and stamps last_login. The returned Info carries
// the previous last_login value.
func (s *Service) Login(ctx context.Context, username, password string) (*Info, error) {
	if password == "" {
		return nil, apperror.New(MsgPasswordRequired)
	}
	if username == "" {
		username = "admin"
	}
	a, err := s.verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.StampLogin(ctx, a.ID); err != nil {
		s.log.WithError(err).WithField("admin_id", a.ID).Warn("admins: last_login not stamped")
	}
	info := a.Info()
	return &info, nil
}

func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.New(MsgBothPasswords)
	}
	a, err := s.verify(ctx, username, oldPassword)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return apperror.New(MsgWrongPassword)
		}
		return err
	}
	if len(newPassword) < minPasswordLength {
		return apperror.New(MsgPasswordTooShort)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, a.ID, string(hash)); err != nil {
		s.log.WithError(err).WithField("admin_id", a.ID).Error("admins: password update failed")
		return apperror.New(MsgChangeFailed)
	}
	return nil
}

func (s *Service) Info(ctx context.Context, username string) (*Info, error) {
	a, err := s.store.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperror.New(MsgAdminNotFound)
	}
	info := a.Info()
	return &info, nil
}

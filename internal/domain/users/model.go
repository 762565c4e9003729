package users

import (
	"strconv"
	"time"

	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a row of the Users table.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	College  string `json:"college,omitempty"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`

	VerificationCode     *string        `json:"verification_code"`
	PasswordResetCode    *string        `json:"password_reset_code"`
	PasswordResetExpires *supabase.Time `json:"password_reset_expires"`

	OACoins decimal.Decimal `json:"oacoins"`

	CreatedAt supabase.Time `json:"created_at"`
	UpdatedAt supabase.Time `json:"updated_at"`
}

// PublicID is the string form of the id that clients keep as "uuid".
func (u *User) PublicID() string {
	return strconv.FormatInt(u.ID, 10)
}

// Profile is the subset of a user that is safe to return to clients.
type Profile struct {
	ID       int64           `json:"id"`
	UUID     string          `json:"uuid"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	College  string          `json:"college,omitempty"`
	Role     string          `json:"role"`
	Verified bool            `json:"verified"`
	OACoins  decimal.Decimal `json:"oacoins"`
	Created  supabase.Time   `json:"created_at"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		UUID:     u.PublicID(),
		Name:     u.Name,
		Email:    u.Email,
		College:  u.College,
		Role:     u.Role,
		Verified: u.Verified,
		OACoins:  u.OACoins,
		Created:  u.CreatedAt,
	}
}

// NewUser carries the fields written on signup.
type NewUser struct {
	Name             string
	Email            string
	PasswordHash     string
	College          string
	VerificationCode string
}

// Ban is an entry of the banned_emails table.
type Ban struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	Reason    string        `json:"reason,omitempty"`
	CreatedAt supabase.Time `json:"created_at"`
}

// Intent resolves which code a submitted verification code is checked against.
// A live reset code takes precedence over a pending signup code.
func (u *User) Intent(now time.Time) VerificationIntent {
	if u.PasswordResetCode != nil && *u.PasswordResetCode != "" &&
		u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
		return ResetIntent{Code: *u.PasswordResetCode, Expires: u.PasswordResetExpires.Time}
	}
	if !u.Verified && u.VerificationCode != nil && *u.VerificationCode != "" {
		return SignupIntent{Code: *u.VerificationCode}
	}
	return NoIntent{}
}

// LiveResetCode returns the reset code when it has not expired at now.
func (u *User) LiveResetCode(now time.Time) (string, bool) {
	if r, ok := u.Intent(now).(ResetIntent); ok {
		return r.Code, true
	}
	return "", false
}

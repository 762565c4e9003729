package users

import (
	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
)

type MeResponse struct {
	User    UserDTO     `json:"user"`
	Premium *PremiumDTO `json:"premium"`
	Access  AccessDTO   `json:"access"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID       int64           `json:"id"`
	UUID     string          `json:"uuid"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	College  *string         `json:"college"`
	Role     string          `json:"role"`
	Verified bool            `json:"verified"`
	OACoins  decimal.Decimal `json:"oacoins"`
}

/* ---------- PREMIUM ---------- */

type PremiumDTO struct {
	SubscriptionID int64           `json:"subscription_id"`
	Plan           string          `json:"plan"`
	Amount         decimal.Decimal `json:"amount"`
	StartDate      supabase.Time   `json:"start_date"`
	EndDate        supabase.Time   `json:"end_date"`
	DaysLeft       int             `json:"days_left"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	State        string    `json:"state"` // free|premium|unlimited
	Capabilities []string  `json:"capabilities"`
	Quota        *QuotaDTO `json:"quota,omitempty"`
}

type QuotaDTO struct {
	DailyLimit int  `json:"daily_limit"`
	UsedToday  int  `json:"used_today"`
	Remaining  int  `json:"remaining"`
	Unlimited  bool `json:"unlimited"`
}

// LookupDTO is the public view returned by GET /api/users/lookup.
type LookupDTO struct {
	ID      int64           `json:"id"`
	UUID    string          `json:"uuid"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	OACoins decimal.Decimal `json:"oacoins"`
}

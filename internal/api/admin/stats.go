package admin

import (
	"context"
	"time"

	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
)

type UserStats struct {
	Total     int `json:"total"`
	Verified  int `json:"verified"`
	Today     int `json:"today"`
	Yesterday int `json:"yesterday"`
	ThisWeek  int `json:"this_week"`
	ThisMonth int `json:"this_month"`
}

type PremiumStats struct {
	TotalActive  int             `json:"total_active"`
	Today        int             `json:"today"`
	ThisWeek     int             `json:"this_week"`
	ThisMonth    int             `json:"this_month"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type PaymentStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type ActivityDay struct {
	Date  string `json:"date"`
	Users int    `json:"users"`
}

type Stats struct {
	Users    UserStats     `json:"users"`
	Premium  PremiumStats  `json:"premium"`
	Payments PaymentStats  `json:"payments"`
	Banned   int           `json:"banned"`
	Activity []ActivityDay `json:"recent_activity"`
}

const activityDays = 7

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// buildStats gathers the dashboard counters. Count failures read as zero.
func buildStats(ctx context.Context, u *users.Store, p *premium.Service, now time.Time) (*Stats, error) {
	today := startOfDay(now.UTC())
	yesterday := today.AddDate(0, 0, -1)
	week := today.AddDate(0, 0, -7)
	month := today.AddDate(0, 0, -30)

	st := &Stats{
		Users: UserStats{
			Total:     u.Count(ctx),
			Verified:  u.Count(ctx, supabase.Eq("verified", true)),
			Today:     u.Count(ctx, supabase.Gte("created_at", today)),
			Yesterday: u.Count(ctx, supabase.Gte("created_at", yesterday), supabase.Lt("created_at", today)),
			ThisWeek:  u.Count(ctx, supabase.Gte("created_at", week)),
			ThisMonth: u.Count(ctx, supabase.Gte("created_at", month)),
		},
		Banned: u.CountBans(ctx),
	}

	subs := p.Store()
	st.Premium = PremiumStats{
		TotalActive: subs.CountActive(ctx, now),
		Today:       subs.CountActiveSince(ctx, today),
		ThisWeek:    subs.CountActiveSince(ctx, week),
		ThisMonth:   subs.CountActiveSince(ctx, month),
	}
	revenue, err := p.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.Premium.TotalRevenue = revenue.TotalRevenue

	st.Payments = PaymentStats{
		Total:    subs.CountRequests(ctx, ""),
		Pending:  subs.CountRequests(ctx, premium.RequestPending),
		Approved: subs.CountRequests(ctx, premium.RequestApproved),
		Rejected: subs.CountRequests(ctx, premium.RequestRejected),
	}

	first := today.AddDate(0, 0, -(activityDays - 1))
	signups, err := u.CreatedSince(ctx, first)
	if err != nil {
		return nil, err
	}
	st.Activity = signupActivity(first, signups)
	return st, nil
}

// signupActivity buckets signups per UTC day, oldest first.
func signupActivity(first time.Time, signups []time.Time) []ActivityDay {
	out := make([]ActivityDay, activityDays)
	for i := range out {
		out[i].Date = first.AddDate(0, 0, i).Format("Jan 2")
	}
	for _, t := range signups {
		i := int(startOfDay(t.UTC()).Sub(first) / (24 * time.Hour))
		if i >= 0 && i < activityDays {
			out[i].Users++
		}
	}
	return out
}

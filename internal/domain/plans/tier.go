package plans

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tier constants (single source of truth)
const (
	TierBasic     = "basic"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
	TierYearly    = "yearly"
	TierCustom    = "custom"
)

// Unlimited is the daily limit of plans without a cap.
const Unlimited = -1

var (
	yearlyThreshold    = decimal.NewFromInt(999)
	unlimitedThreshold = decimal.NewFromInt(299)
	proThreshold       = decimal.NewFromInt(199)
)

// Plan describes what a subscription tier grants.
type Plan struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	DailyLimit int    `json:"daily_limit"`

	years int
	days  int
}

// EndFrom returns the end of a subscription that starts at start.
func (p Plan) EndFrom(start time.Time) time.Time {
	return start.AddDate(p.years, 0, p.days)
}

var catalog = map[string]Plan{
	TierYearly:    {Type: TierYearly, Name: "Yearly Plan", DailyLimit: Unlimited, years: 1},
	TierUnlimited: {Type: TierUnlimited, Name: "Unlimited Plan", DailyLimit: Unlimited, days: 45},
	TierPro:       {Type: TierPro, Name: "Pro Plan", DailyLimit: 15, days: 30},
	TierBasic:     {Type: TierBasic, Name: "Basic Plan", DailyLimit: 5, days: 30},
}

// Details returns the plan for a purchase.
// Priority:
// 1. Explicit plan type when recognised
// 2. Inference from the paid amount
func Details(amount decimal.Decimal, planType string) Plan {
	if p, ok := catalog[strings.ToLower(strings.TrimSpace(planType))]; ok {
		return p
	}
	return catalog[inferTierFromAmount(amount)]
}

func inferTierFromAmount(amount decimal.Decimal) string {
	switch {
	case amount.GreaterThanOrEqual(yearlyThreshold):
		return TierYearly
	case amount.GreaterThanOrEqual(unlimitedThreshold):
		return TierUnlimited
	case amount.GreaterThanOrEqual(proThreshold):
		return TierPro
	default:
		return TierBasic
	}
}

// DailyLimitForAmount derives the solution quota from the amount paid for
// the active subscription, ignoring its stored tier.
func DailyLimitForAmount(amount decimal.Decimal) int {
	switch {
	case amount.GreaterThanOrEqual(unlimitedThreshold):
		return Unlimited
	case amount.GreaterThanOrEqual(proThreshold):
		return 15
	default:
		return 5
	}
}

// IsKnownType reports whether t is a tier accepted on manual activation.
func IsKnownType(t string) bool {
	_, ok := catalog[t]
	return ok || t == TierCustom
}

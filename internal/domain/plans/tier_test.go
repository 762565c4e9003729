package plans

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDetails(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		amount   int64
		planType string
		wantType string
		limit    int
		end      time.Time
	}{
		{1000, "", TierYearly, Unlimited, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{999, "", TierYearly, Unlimited, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{998, "", TierUnlimited, Unlimited, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
		{299, "", TierUnlimited, Unlimited, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
		{250, "", TierPro, 15, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{199, "", TierPro, 15, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{50, "", TierBasic, 5, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{0, "pro", TierPro, 15, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{5000, " Basic ", TierBasic, 5, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{300, "platinum", TierUnlimited, Unlimited, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		p := Details(decimal.NewFromInt(tc.amount), tc.planType)
		assert.Equal(t, tc.wantType, p.Type, "amount=%d type=%q", tc.amount, tc.planType)
		assert.Equal(t, tc.limit, p.DailyLimit)
		assert.Equal(t, tc.end, p.EndFrom(start))
	}
}

func TestPlanNames(t *testing.T) {
	assert.Equal(t, "Yearly Plan", Details(decimal.Zero, TierYearly).Name)
	assert.Equal(t, "Unlimited Plan", Details(decimal.Zero, TierUnlimited).Name)
	assert.Equal(t, "Pro Plan", Details(decimal.Zero, TierPro).Name)
	assert.Equal(t, "Basic Plan", Details(decimal.Zero, "").Name)
}

func TestDailyLimitForAmount(t *testing.T) {
	assert.Equal(t, Unlimited, DailyLimitForAmount(decimal.NewFromInt(999)))
	assert.Equal(t, Unlimited, DailyLimitForAmount(decimal.NewFromInt(299)))
	assert.Equal(t, 15, DailyLimitForAmount(decimal.NewFromInt(250)))
	assert.Equal(t, 15, DailyLimitForAmount(decimal.RequireFromString("199.00")))
	assert.Equal(t, 5, DailyLimitForAmount(decimal.RequireFromString("198.99")))
}

func TestIsKnownType(t *testing.T) {
	for _, typ := range []string{TierBasic, TierPro, TierUnlimited, TierYearly, TierCustom} {
		assert.True(t, IsKnownType(typ), typ)
	}
	assert.False(t, IsKnownType("gold"))
}

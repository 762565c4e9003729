package access

import (
	"testing"
	"time"

	"oahelper-api/internal/domain/plans"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputePolicy(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	sub := func(amount int64, end time.Time) *premium.Subscription {
		return &premium.Subscription{
			SubscriptionType: "pro",
			Amount:           decimal.NewFromInt(amount),
			Status:           premium.StatusActive,
			EndDate:          supabase.NewTime(end),
		}
	}

	free := ComputePolicy(now, nil)
	assert.Equal(t, AccessFree, free.State)
	assert.Equal(t, []string{CapQuestions}, free.Capabilities)
	assert.Zero(t, free.DailyLimit)

	pro := ComputePolicy(now, sub(199, now.Add(time.Hour)))
	assert.Equal(t, AccessPremium, pro.State)
	assert.Equal(t, 15, pro.DailyLimit)
	assert.Contains(t, pro.Capabilities, CapSolutions)
	assert.NotContains(t, pro.Capabilities, CapUnlimitedSolution)

	unlimited := ComputePolicy(now, sub(299, now.Add(time.Hour)))
	assert.Equal(t, AccessUnlimited, unlimited.State)
	assert.Equal(t, plans.Unlimited, unlimited.DailyLimit)

	ended := ComputePolicy(now, sub(999, now))
	assert.Equal(t, AccessFree, ended.State)

	canceled := sub(199, now.Add(time.Hour))
	canceled.Status = premium.StatusCanceled
	assert.Equal(t, AccessFree, ComputePolicy(now, canceled).State)
}

package access

import (
	"time"

	"oahelper-api/internal/domain/plans"
	"oahelper-api/internal/domain/premium"
)

// Effective access for UI/product: free|premium|unlimited
func ComputeEffectiveAccessState(now time.Time, sub *premium.Subscription) AccessState {
	// No subscription, or one that ended
	if sub == nil || sub.Status != premium.StatusActive || !sub.EndDate.After(now) {
		return AccessFree
	}

	// Tier is decided by the amount paid, not the stored type
	if plans.DailyLimitForAmount(sub.Amount) == plans.Unlimited {
		return AccessUnlimited
	}
	return AccessPremium
}

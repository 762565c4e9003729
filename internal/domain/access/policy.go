package access

import (
	"time"

	"oahelper-api/internal/domain/plans"
	"oahelper-api/internal/domain/premium"
)

type Policy struct {
	State        AccessState
	Plan         string
	DailyLimit   int
	Capabilities []string
}

func ComputePolicy(now time.Time, sub *premium.Subscription) Policy {
	state := ComputeEffectiveAccessState(now, sub)

	p := Policy{State: state, Capabilities: CapabilitiesFor(state)}
	if state != AccessFree {
		p.Plan = sub.SubscriptionType
		p.DailyLimit = plans.DailyLimitForAmount(sub.Amount)
	}
	return p
}

package users

import (
	"time"

	"oahelper-api/internal/domain/access"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/quota"
	"oahelper-api/internal/domain/users"
)

func BuildUserDTO(u *users.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		UUID:     u.PublicID(),
		Email:    u.Email,
		Name:     u.Name,
		College:  stringPtrIfNotEmpty(u.College),
		Role:     u.Role,
		Verified: u.Verified,
		OACoins:  u.OACoins,
	}
}

func BuildPremiumDTO(now time.Time, sub *premium.Subscription) *PremiumDTO {
	if sub == nil {
		return nil
	}

	d := 0
	if now.Before(sub.EndDate.Time) {
		d = int(sub.EndDate.Sub(now).Hours() / 24)
	}

	return &PremiumDTO{
		SubscriptionID: sub.ID,
		Plan:           sub.SubscriptionType,
		Amount:         sub.Amount,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		DaysLeft:       d,
	}
}

func BuildAccessDTO(policy access.Policy, status *quota.DailyStatus) AccessDTO {
	dto := AccessDTO{
		State:        string(policy.State),
		Capabilities: policy.Capabilities,
	}
	if status != nil && policy.State != access.AccessFree {
		dto.Quota = &QuotaDTO{
			DailyLimit: status.DailyLimit,
			UsedToday:  status.RequestCount,
			Remaining:  status.RemainingRequests,
			Unlimited:  status.IsUnlimited,
		}
	}
	return dto
}

func BuildLookupDTO(u *users.User) LookupDTO {
	return LookupDTO{ID: u.ID, UUID: u.PublicID(), Name: u.Name, Email: u.Email, OACoins: u.OACoins}
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

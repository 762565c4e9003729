package premium

import (
	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusCanceled = "canceled"

	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type Subscription struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	SubscriptionType string          `json:"subscription_type"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	StartDate        supabase.Time   `json:"start_date"`
	EndDate          supabase.Time   `json:"end_date"`
	CreatedAt        supabase.Time   `json:"created_at"`
	UpdatedAt        supabase.Time   `json:"updated_at"`
}

// PaymentRequest is a manually reviewed payment. It moves from pending to
// approved or rejected exactly once.
type PaymentRequest struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	UserEmail         string          `json:"user_email"`
	UserName          string          `json:"user_name"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     string          `json:"payment_method"`
	PlanType          *string         `json:"plan_type"`
	UTRNumber         *string         `json:"utr_number"`
	PaymentDetails    *string         `json:"payment_details"`
	PaymentScreenshot *string         `json:"payment_screenshot"`
	Status            string          `json:"status"`
	SubmittedAt       supabase.Time   `json:"submitted_at"`
	ProcessedAt       *supabase.Time  `json:"processed_at"`
	ProcessedBy       *string         `json:"processed_by"`
	AdminNotes        *string         `json:"admin_notes"`
}

func (r *PaymentRequest) Plan() string {
	if r.PlanType == nil {
		return ""
	}
	return *r.PlanType
}

// PremiumUser is an active subscription joined with its owner.
type PremiumUser struct {
	Subscription
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

type Bucket struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DailyBucket struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
	Types   map[string]int  `json:"types"`
}

type Stats struct {
	TotalSubscribers int                     `json:"total_subscribers"`
	TotalRevenue     decimal.Decimal         `json:"total_revenue"`
	PlanBreakdown    map[string]*Bucket      `json:"plan_breakdown"`
	MonthlyStats     map[string]*Bucket      `json:"monthly_stats"`
	DailyStats       map[string]*DailyBucket `json:"daily_stats"`
}

package premium

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/domain/coins"
	"oahelper-api/internal/domain/plans"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/mailer"
	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	MsgUserNotFound        = "User not found"
	MsgMissingFields       = "Missing required fields"
	MsgDaysNotPositive     = "Days must be a positive number"
	MsgNoActive            = "No active premium subscription found"
	MsgPurchaseFailed      = "Failed to create subscription"
	MsgExtendFailed        = "Failed to extend subscription"
	MsgSubmitFailed        = "Failed to submit payment request"
	MsgInvalidStatus       = "Invalid status"
	MsgRequestNotFound     = "Payment request not found"
	MsgAlreadyProcessed    = "Payment request has already been processed"
	MsgSubscriptionFailed  = "Failed to create premium subscription"
	MsgManualFieldsMissing = "Email, start date, and end date are required"
	MsgInvalidDates        = "Invalid start or end date"
	MsgEndBeforeStart      = "End date must be after start date"
	MsgNegativeAmount      = "Amount cannot be negative"
	MsgNoUserForEmail      = "No user found with the provided email address"
	MsgCancelFailed        = "Failed to cancel subscription"
)

// ExtensionRate is the OACoins cost of one extra premium day.
var ExtensionRate = decimal.RequireFromString("3.5")

var errSideEffect = errors.New("premium: dependent write failed")

// Users is the part of the user store the premium engine reads.
type Users interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	Resolve(ctx context.Context, ref string) (*users.User, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]users.User, error)
}

type Service struct {
	store  *Store
	users  Users
	ledger *coins.Ledger
	mail   *mailer.Mailer
	log    *logrus.Entry
	now    func() time.Time
}

func NewService(store *Store, u Users, ledger *coins.Ledger, mail *mailer.Mailer, log *logrus.Entry, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, users: u, ledger: ledger, mail: mail, log: log, now: now}
}

func (s *Service) Store() *Store { return s.store }

// Status returns the authoritative subscription of the referenced user, or
// nil when the user is unknown or not premium.
func (s *Service) Status(ctx context.Context, userRef string) (*Subscription, error) {
	u, err := s.users.Resolve(ctx, userRef)
	if err != nil || u == nil {
		return nil, err
	}
	return s.store.Active(ctx, u.ID, s.now())
}

func (s *Service) IsPremium(ctx context.Context, userID int64) (bool, error) {
	sub, err := s.store.Active(ctx, userID, s.now())
	return sub != nil, err
}

type PurchaseResult struct {
	Plan          plans.Plan      `json:"plan"`
	EndDate       supabase.Time   `json:"end_date"`
	CoinsDeducted decimal.Decimal `json:"coins_deducted"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// Purchase pays for a plan with OACoins. The debit is undone when the
// subscription cannot be created.
func (s *Service) Purchase(ctx context.Context, userRef string, amount decimal.Decimal, planType string) (*PurchaseResult, error) {
	switch {
	case strings.TrimSpace(userRef) == "":
		return nil, apperror.New("Missing required field: user_id")
	case amount.IsZero():
		return nil, apperror.New("Missing required field: amount")
	case amount.IsNegative():
		return nil, apperror.New(coins.MsgAmountNotPositive)
	case strings.TrimSpace(planType) == "":
		return nil, apperror.New("Missing required field: plan_type")
	}
	u, err := s.users.Resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.New(MsgUserNotFound)
	}

	plan := plans.Details(amount, planType)
	start := s.now().UTC()
	end := plan.EndFrom(start)

	balance, err := s.ledger.Spend(ctx, u.ID, amount, "Premium subscription purchase: "+plan.Name, coins.MsgInsufficientBalance,
		func(ctx context.Context) error {
			_, err := s.store.Insert(ctx, NewSubscription{UserID: u.ID, Type: plan.Type, Amount: amount, Start: start, End: end})
			if err != nil {
				return fmt.Errorf("%w: %w", errSideEffect, err)
			}
			return nil
		})
	if err != nil {
		return nil, s.sideEffectFailure(err, MsgPurchaseFailed, u.ID)
	}

	_ = s.mail.PremiumPurchased(ctx, u.Email, u.Name, plan.Name, amount, end)
	return &PurchaseResult{Plan: plan, EndDate: supabase.NewTime(end), CoinsDeducted: amount, NewBalance: balance}, nil
}

type ExtendResult struct {
	DaysExtended  int             `json:"days_extended"`
	CoinsDeducted decimal.Decimal `json:"coins_deducted"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	NewEndDate    supabase.Time   `json:"new_end_date"`
}

// Extend buys extra days on the active subscription. The new end date is
// counted from the current end date, not from now.
func (s *Service) Extend(ctx context.Context, userRef string, days int) (*ExtendResult, error) {
	if strings.TrimSpace(userRef) == "" {
		return nil, apperror.New(MsgMissingFields)
	}
	if days <= 0 {
		return nil, apperror.New(MsgDaysNotPositive)
	}
	u, err := s.users.Resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.New(MsgUserNotFound)
	}
	cost := decimal.NewFromInt(int64(days)).Mul(ExtensionRate)
	if u.OACoins.LessThan(cost) {
		return nil, coins.Insufficient(coins.MsgInsufficientBalance, u.OACoins, cost)
	}

	sub, err := s.store.Active(ctx, u.ID, s.now())
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.New(MsgNoActive)
	}
	end := sub.EndDate.AddDate(0, 0, days)

	description := fmt.Sprintf("Premium subscription extended by %d day(s)", days)
	balance, err := s.ledger.Spend(ctx, u.ID, cost, description, coins.MsgInsufficientBalance,
		func(ctx context.Context) error {
			if err := s.store.SetEndDate(ctx, sub.ID, end); err != nil {
				return fmt.Errorf("%w: %w", errSideEffect, err)
			}
			return nil
		})
	if err != nil {
		return nil, s.sideEffectFailure(err, MsgExtendFailed, u.ID)
	}

	_ = s.mail.PremiumExtended(ctx, u.Email, u.Name, days, cost, end)
	return &ExtendResult{DaysExtended: days, CoinsDeducted: cost, NewBalance: balance, NewEndDate: supabase.NewTime(end)}, nil
}

// sideEffectFailure maps a failed dependent write to its user-facing message.
// Business errors and infrastructure failures before the debit pass through.
func (s *Service) sideEffectFailure(err error, message string, userID int64) error {
	if !errors.Is(err, errSideEffect) {
		return err
	}
	s.log.WithError(err).WithField("user_id", userID).Error("premium: debit rolled back")
	return apperror.New(message)
}

type PaymentSubmission struct {
	UserRef           string
	UserEmail         string
	UserName          string
	Amount            decimal.Decimal
	PaymentMethod     string
	PlanType          string
	UTRNumber         string
	PaymentDetails    string
	PaymentScreenshot string
	AutoApprove       bool
}

// SubmitPayment records a payment request. Auto-approved requests get their
// subscription immediately; a failure there is logged and left for review.
func (s *Service) SubmitPayment(ctx context.Context, in PaymentSubmission) error {
	required := []struct{ name, value string }{
		{"user_id", in.UserRef},
		{"user_email", in.UserEmail},
		{"user_name", in.UserName},
		{"amount", amountField(in.Amount)},
		{"payment_method", in.PaymentMethod},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperror.New("Missing required field: " + f.name)
		}
	}
	u, err := s.users.Resolve(ctx, in.UserRef)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.New(MsgUserNotFound)
	}

	status := RequestPending
	if in.AutoApprove {
		status = RequestApproved
	}
	_, err = s.store.InsertRequest(ctx, NewPaymentRequest{
		UserID:            u.ID,
		UserEmail:         in.UserEmail,
		UserName:          in.UserName,
		Amount:            in.Amount,
		PaymentMethod:     in.PaymentMethod,
		PlanType:          in.PlanType,
		UTRNumber:         in.UTRNumber,
		PaymentDetails:    in.PaymentDetails,
		PaymentScreenshot: in.PaymentScreenshot,
		Status:            status,
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("premium: payment request insert failed")
		return apperror.New(MsgSubmitFailed)
	}

	if in.AutoApprove {
		plan := plans.Details(in.Amount, in.PlanType)
		start := s.now().UTC()
		if _, err := s.store.Insert(ctx, NewSubscription{UserID: u.ID, Type: plan.Type, Amount: in.Amount, Start: start, End: plan.EndFrom(start)}); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "amount": in.Amount.String(), "plan": plan.Type}).
				Error("premium: subscription for auto-approved payment not created")
		}
	}

	_ = s.mail.PaymentReceived(ctx, in.UserEmail, in.UserName, in.Amount, in.AutoApprove)
	_ = s.mail.AdminPaymentNotice(ctx, in.UserName, in.UserEmail, in.Amount, in.PaymentMethod, in.PlanType, in.UTRNumber, status)
	return nil
}

func amountField(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// DecidePayment moves a pending request to approved or rejected. Only the
// first decision takes effect. Approval creates the subscription; if that
// fails the request goes back to pending so it can be decided again.
func (s *Service) DecidePayment(ctx context.Context, id int64, status, notes string) error {
	if status != RequestApproved && status != RequestRejected {
		return apperror.New(MsgInvalidStatus)
	}
	req, err := s.store.DecideRequest(ctx, id, status, notes)
	if err != nil {
		return err
	}
	if req == nil {
		existing, err := s.store.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.New(MsgRequestNotFound)
		}
		return apperror.New(MsgAlreadyProcessed)
	}

	if status == RequestApproved {
		plan := plans.Details(req.Amount, req.Plan())
		start := s.now().UTC()
		_, err := s.store.Insert(ctx, NewSubscription{UserID: req.UserID, Type: plan.Type, Amount: req.Amount, Start: start, End: plan.EndFrom(start)})
		if err != nil {
			log := s.log.WithError(err).WithField("request_id", id)
			log.Error("premium: subscription for approved payment not created")
			if rerr := s.store.ReopenRequest(ctx, id); rerr != nil {
				log.WithField("reopen_error", rerr.Error()).Error("premium: payment request left approved without subscription")
			}
			return apperror.New(MsgSubscriptionFailed)
		}
	}

	_ = s.mail.PaymentDecided(ctx, req.UserEmail, req.UserName, status == RequestApproved, notes)
	return nil
}

type ManualActivation struct {
	Email           string
	StartDate       string
	EndDate         string
	PlanType        string
	Amount          decimal.Decimal
	Notes           string
	ReplaceExisting *bool
}

type ManualResult struct {
	SubscriptionID int64         `json:"subscription_id"`
	UserID         int64         `json:"user_id"`
	StartDate      supabase.Time `json:"start_date"`
	EndDate        supabase.Time `json:"end_date"`
}

// ManualActivate grants premium for an explicit window. Once the new row
// exists the other active subscriptions are canceled unless ReplaceExisting
// is false.
func (s *Service) ManualActivate(ctx context.Context, in ManualActivation) (*ManualResult, error) {
	email := users.NormalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" {
		return nil, apperror.New(MsgManualFieldsMissing)
	}
	planType := strings.ToLower(strings.TrimSpace(in.PlanType))
	if !plans.IsKnownType(planType) {
		planType = plans.TierCustom
	}
	start, err := supabase.ParseTime(in.StartDate)
	if err != nil {
		return nil, apperror.New(MsgInvalidDates)
	}
	end, err := supabase.ParseTime(in.EndDate)
	if err != nil {
		return nil, apperror.New(MsgInvalidDates)
	}
	if !end.After(start.Time) {
		return nil, apperror.New(MsgEndBeforeStart)
	}
	if in.Amount.IsNegative() {
		return nil, apperror.New(MsgNegativeAmount)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.New(MsgNoUserForEmail)
	}

	sub, err := s.store.Insert(ctx, NewSubscription{UserID: u.ID, Type: planType, Amount: in.Amount, Start: start.Time, End: end.Time})
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("premium: manual activation insert failed")
		return nil, apperror.New(MsgSubscriptionFailed)
	}
	if in.ReplaceExisting == nil || *in.ReplaceExisting {
		if err := s.store.CancelActiveExcept(ctx, u.ID, sub.ID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "subscription_id": sub.ID}).
				Error("premium: older subscriptions left active after manual activation")
		}
	}

	_ = s.mail.ManualActivation(ctx, u.Email, u.Name, planType, start.Time, end.Time, strings.TrimSpace(in.Notes))
	return &ManualResult{SubscriptionID: sub.ID, UserID: u.ID, StartDate: start, EndDate: end}, nil
}

func (s *Service) Cancel(ctx context.Context, id int64) error {
	ok, err := s.store.Cancel(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("subscription_id", id).Error("premium: cancel failed")
		return apperror.New(MsgCancelFailed)
	}
	if !ok {
		return apperror.New(MsgCancelFailed)
	}
	return nil
}

func (s *Service) Requests(ctx context.Context) ([]PaymentRequest, error) {
	return s.store.ListRequests(ctx)
}

func (s *Service) DeleteRequest(ctx context.Context, id int64) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		s.log.WithError(err).WithField("request_id", id).Error("premium: delete request failed")
		return apperror.New("Failed to delete payment request")
	}
	return nil
}

// PremiumUsers lists active subscriptions with their owners' name and email.
func (s *Service) PremiumUsers(ctx context.Context) ([]PremiumUser, error) {
	subs, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(subs))
	seen := make(map[int64]bool, len(subs))
	for _, sub := range subs {
		if !seen[sub.UserID] {
			seen[sub.UserID] = true
			ids = append(ids, sub.UserID)
		}
	}
	owners, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PremiumUser, 0, len(subs))
	for _, sub := range subs {
		pu := PremiumUser{Subscription: sub, UserName: "Unknown", UserEmail: "Unknown"}
		if owner, ok := owners[sub.UserID]; ok {
			pu.UserName, pu.UserEmail = owner.Name, owner.Email
		}
		out = append(out, pu)
	}
	return out, nil
}

var statTiers = []string{plans.TierBasic, plans.TierPro, plans.TierUnlimited, plans.TierYearly}

// Stats aggregates revenue over every row with status active.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	subs, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		TotalRevenue:  decimal.Zero,
		PlanBreakdown: make(map[string]*Bucket, len(statTiers)),
		MonthlyStats:  map[string]*Bucket{},
		DailyStats:    map[string]*DailyBucket{},
	}
	for _, t := range statTiers {
		st.PlanBreakdown[t] = &Bucket{Revenue: decimal.Zero}
	}

	subscribers := map[int64]bool{}
	for _, sub := range subs {
		subscribers[sub.UserID] = true
		st.TotalRevenue = st.TotalRevenue.Add(sub.Amount)

		tier := sub.SubscriptionType
		if tier == "" {
			tier = plans.Details(sub.Amount, "").Type
		}
		if b, ok := st.PlanBreakdown[tier]; ok {
			b.Count++
			b.Revenue = b.Revenue.Add(sub.Amount)
		}

		created := sub.CreatedAt.Time
		if created.IsZero() {
			created = s.now()
		}
		created = created.UTC()

		month := st.MonthlyStats[created.Format("2006-01")]
		if month == nil {
			month = &Bucket{Revenue: decimal.Zero}
			st.MonthlyStats[created.Format("2006-01")] = month
		}
		month.Count++
		month.Revenue = month.Revenue.Add(sub.Amount)

		dayKey := created.Format("2006-01-02")
		day := st.DailyStats[dayKey]
		if day == nil {
			day = &DailyBucket{Revenue: decimal.Zero, Types: map[string]int{}}
			for _, t := range statTiers {
				day.Types[t] = 0
			}
			st.DailyStats[dayKey] = day
		}
		day.Count++
		day.Revenue = day.Revenue.Add(sub.Amount)
		if _, ok := day.Types[tier]; ok {
			day.Types[tier]++
		}
	}
	st.TotalSubscribers = len(subscribers)
	return st, nil
}

package quota

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/domain/plans"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/mailer"

	"github.com/sirupsen/logrus"
)

const (
	MsgUserNotFound       = "User not found"
	MsgPremiumForSolution = "Premium subscription required to access solution codes"
	MsgPremiumForRequest  = "Premium subscription required to request solution codes"
	MsgNoSolution         = "Solution not available for this question"
	MsgAlreadyRequested   = "You have already requested the solution for this question today."
	MsgRequestFailed      = "Failed to submit solution request"
	MsgRequestNotFound    = "Solution request not found"
	MsgSendFailed         = "Failed to send solution code"
	MsgUpdateFailed       = "Failed to update solution request status"
	MsgAccessUpdateFailed = "Failed to update question access"
)

const dayLayout = "2006-01-02"

// DailyLimitMessage is returned when a user has used up today's quota.
func DailyLimitMessage(limit int) string {
	l := strconv.Itoa(limit)
	if limit == plans.Unlimited {
		l = "unlimited"
	}
	return fmt.Sprintf("Daily limit reached. Your plan allows up to %s solution codes per day.", l)
}

type Subscriptions interface {
	Active(ctx context.Context, userID int64, at time.Time) (*premium.Subscription, error)
}

type Users interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	Resolve(ctx context.Context, ref string) (*users.User, error)
}

// Service gates solution access by premium status and the daily quota.
type Service struct {
	counters Counters
	store    *Store
	subs     Subscriptions
	users    Users
	mail     *mailer.Mailer
	log      *logrus.Entry
	now      func() time.Time
	loc      *time.Location
}

func NewService(counters Counters, store *Store, subs Subscriptions, u Users, mail *mailer.Mailer, log *logrus.Entry, now func() time.Time, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{counters: counters, store: store, subs: subs, users: u, mail: mail, log: log, now: now, loc: loc}
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) resolve(ctx context.Context, ref string) (*users.User, error) {
	u, err := s.users.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.New(MsgUserNotFound)
	}
	return u, nil
}

// DailyLimit derives the quota from the amount of the active subscription.
// Users without one get 0.
func (s *Service) DailyLimit(ctx context.Context, userID int64) (int, error) {
	sub, err := s.subs.Active(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if sub == nil {
		return 0, nil
	}
	return plans.DailyLimitForAmount(sub.Amount), nil
}

func (s *Service) isPremium(ctx context.Context, userID int64) (bool, error) {
	sub, err := s.subs.Active(ctx, userID, s.now())
	return sub != nil, err
}

// canRequest compares today's counter with the limit.
func (s *Service) canRequest(ctx context.Context, u *users.User) (bool, int, error) {
	limit, err := s.DailyLimit(ctx, u.ID)
	if err != nil {
		return false, 0, err
	}
	switch limit {
	case plans.Unlimited:
		return true, limit, nil
	case 0:
		return false, limit, nil
	}
	used, err := s.counters.DailyCount(ctx, u.PublicID(), s.today().Format(dayLayout))
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("quota: daily count unavailable, assuming 0")
		used = 0
	}
	return used < limit, limit, nil
}

type DailyStatus struct {
	RequestCount      int    `json:"request_count"`
	RemainingRequests int    `json:"remaining_requests"`
	DailyLimit        int    `json:"daily_limit"`
	IsUnlimited       bool   `json:"is_unlimited"`
	ResetDate         string `json:"reset_date"`
}

func (s *Service) DailyStatus(ctx context.Context, userRef string) (*DailyStatus, error) {
	u, err := s.resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	limit, err := s.DailyLimit(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	used, err := s.counters.DailyCount(ctx, u.PublicID(), today.Format(dayLayout))
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("quota: daily count unavailable, assuming 0")
		used = 0
	}
	remaining := -1
	if limit != plans.Unlimited {
		remaining = max(0, limit-used)
	}
	return &DailyStatus{
		RequestCount:      used,
		RemainingRequests: remaining,
		DailyLimit:        limit,
		IsUnlimited:       limit == plans.Unlimited,
		ResetDate:         today.AddDate(0, 0, 1).Format(dayLayout),
	}, nil
}

// Solution returns the stored solution of a question. Only the first view
// of a question is checked against and counted toward the daily quota;
// repeat views just bump the view counter.
func (s *Service) Solution(ctx context.Context, userRef string, questionID int64) (string, error) {
	u, err := s.resolve(ctx, userRef)
	if err != nil {
		return "", err
	}
	paid, err := s.isPremium(ctx, u.ID)
	if err != nil {
		return "", err
	}
	if !paid {
		return "", apperror.New(MsgPremiumForSolution)
	}

	uid := u.PublicID()
	view, err := s.store.View(ctx, uid, questionID)
	if err != nil {
		return "", err
	}
	if view == nil {
		ok, limit, err := s.canRequest(ctx, u)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", apperror.New(DailyLimitMessage(limit))
		}
	}

	q, err := s.store.Question(ctx, questionID)
	if err != nil {
		return "", err
	}
	if q == nil || strings.TrimSpace(q.SolutionCPP) == "" {
		return "", apperror.New(MsgNoSolution)
	}

	log := s.log.WithFields(logrus.Fields{"user_id": u.ID, "question_id": questionID})
	if view != nil {
		if err := s.store.RecordRepeatView(ctx, view); err != nil {
			log.WithError(err).Warn("quota: repeat view not recorded")
		}
		return q.SolutionCPP, nil
	}
	if _, err := s.counters.IncrementDaily(ctx, uid, s.today().Format(dayLayout)); err != nil {
		log.WithError(err).Error("quota: daily counter not incremented")
	}
	if err := s.store.RecordFirstView(ctx, uid, questionID, q.CompanyID); err != nil {
		log.WithError(err).Error("quota: first view not recorded")
	}
	return q.SolutionCPP, nil
}

type RequestStatus struct {
	CanRequest        bool `json:"can_request"`
	AlreadyRequested  bool `json:"already_requested"`
	DailyLimitReached bool `json:"daily_limit_reached"`
}

func (s *Service) RequestStatus(ctx context.Context, userRef string, questionID int64) (*RequestStatus, error) {
	u, err := s.resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	paid, err := s.isPremium(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, apperror.New(MsgPremiumForRequest)
	}
	ok, _, err := s.canRequest(ctx, u)
	if err != nil {
		return nil, err
	}
	already := s.store.RequestedOn(ctx, u.PublicID(), questionID, s.today().Format(dayLayout))
	return &RequestStatus{CanRequest: ok && !already, AlreadyRequested: already, DailyLimitReached: !ok}, nil
}

type SolutionRequestInput struct {
	UserRef    string
	QuestionID int64
	CompanyID  int64
	Language   string
}

// RequestSolution queues a question for an admin to answer by email. It
// consumes daily quota like a first view.
func (s *Service) RequestSolution(ctx context.Context, in SolutionRequestInput) error {
	switch {
	case strings.TrimSpace(in.UserRef) == "":
		return apperror.New("Missing required field: user_id")
	case in.QuestionID == 0:
		return apperror.New("Missing required field: question_id")
	case in.CompanyID == 0:
		return apperror.New("Missing required field: company_id")
	}
	if in.Language == "" {
		in.Language = "cpp"
	}
	u, err := s.resolve(ctx, in.UserRef)
	if err != nil {
		return err
	}
	paid, err := s.isPremium(ctx, u.ID)
	if err != nil {
		return err
	}
	if !paid {
		return apperror.New(MsgPremiumForRequest)
	}
	ok, limit, err := s.canRequest(ctx, u)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(DailyLimitMessage(limit))
	}

	uid, day := u.PublicID(), s.today().Format(dayLayout)
	if s.store.RequestedOn(ctx, uid, in.QuestionID, day) {
		return apperror.New(MsgAlreadyRequested)
	}
	if err := s.store.InsertRequest(ctx, uid, in.QuestionID, in.CompanyID, in.Language, day); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("quota: solution request insert failed")
		return apperror.New(MsgRequestFailed)
	}
	if _, err := s.counters.IncrementDaily(ctx, uid, day); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("quota: daily counter not incremented")
	}
	return nil
}

func (s *Service) Requests(ctx context.Context) ([]SolutionRequest, error) {
	return s.store.Requests(ctx)
}

// SendSolution answers a request and emails the code to its owner.
func (s *Service) SendSolution(ctx context.Context, id int64, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperror.New("Missing required field: solution_code")
	}
	req, err := s.store.Request(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return apperror.New(MsgRequestNotFound)
	}
	if err := s.store.MarkSent(ctx, id, code); err != nil {
		s.log.WithError(err).WithField("request_id", id).Error("quota: mark sent failed")
		return apperror.New(MsgSendFailed)
	}

	owner, err := s.users.Resolve(ctx, req.UserID)
	if err != nil || owner == nil {
		s.log.WithError(err).WithField("request_id", id).Warn("quota: request owner not found, solution not emailed")
		return nil
	}
	lang := req.RequestedLanguage
	if lang == "" {
		lang = "cpp"
	}
	_ = s.mail.SolutionDelivered(ctx, owner.Email, owner.Name, req.QuestionID, lang, code)
	return nil
}

func (s *Service) UpdateRequest(ctx context.Context, id int64, status, notes string) error {
	if strings.TrimSpace(status) == "" {
		return apperror.New("Missing required field: status")
	}
	if err := s.store.UpdateRequest(ctx, id, status, notes); err != nil {
		s.log.WithError(err).WithField("request_id", id).Error("quota: request status update failed")
		return apperror.New(MsgUpdateFailed)
	}
	return nil
}

type QuestionAccess struct {
	IsPremium         bool `json:"is_premium"`
	QuestionsAccessed int  `json:"questions_accessed"`
	CanAccessAll      bool `json:"can_access_all"`
}

// QuestionAccess reports the per-company counter. Premium users can see
// every question whatever the counter says.
func (s *Service) QuestionAccess(ctx context.Context, userRef string, companyID int64) (*QuestionAccess, error) {
	u, err := s.resolve(ctx, userRef)
	if err != nil {
		return nil, err
	}
	paid, err := s.isPremium(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	n, err := s.counters.QuestionAccess(ctx, u.PublicID(), companyID)
	if err != nil {
		return nil, err
	}
	return &QuestionAccess{IsPremium: paid, QuestionsAccessed: n, CanAccessAll: paid}, nil
}

func (s *Service) IncrementQuestionAccess(ctx context.Context, userRef string, companyID int64) (int, error) {
	u, err := s.resolve(ctx, userRef)
	if err != nil {
		return 0, err
	}
	n, err := s.counters.IncrementQuestionAccess(ctx, u.PublicID(), companyID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("quota: question access not stored")
		return 0, apperror.New(MsgAccessUpdateFailed)
	}
	return n, nil
}

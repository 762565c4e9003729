package coins

import (
	"context"
	"fmt"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/domain/users"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	MsgUserNotFound        = "User not found"
	MsgInsufficientCoins   = "Insufficient coins"
	MsgInsufficientBalance = "Insufficient OACoins balance"
	MsgAmountNotPositive   = "Amount must be greater than zero"
)

// Balances is the part of the user store the ledger writes through.
type Balances interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error
}

// Ledger mutates balances and keeps the transaction journal in step: each
// successful mutation appends exactly one row whose balance_after equals the
// balance just written.
type Ledger struct {
	balances Balances
	journal  *Journal
	log      *logrus.Entry
}

func NewLedger(balances Balances, journal *Journal, log *logrus.Entry) *Ledger {
	return &Ledger{balances: balances, journal: journal, log: log}
}

func (l *Ledger) Journal() *Journal { return l.journal }

func (l *Ledger) load(ctx context.Context, userID int64) (*users.User, error) {
	u, err := l.balances.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.New(MsgUserNotFound)
	}
	return u, nil
}

// Insufficient builds the business error returned when balance < required.
func Insufficient(message string, balance, required decimal.Decimal) *apperror.Error {
	return apperror.WithData(message, map[string]any{
		"current_balance": balance,
		"required":        required,
		"shortage":        required.Sub(balance),
	})
}

// Credit adds amount and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(MsgAmountNotPositive)
	}
	u, err := l.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	after := u.OACoins.Add(amount)
	if err := l.balances.SetBalance(ctx, userID, after); err != nil {
		return decimal.Zero, fmt.Errorf("credit user %d: %w", userID, err)
	}
	l.record(ctx, userID, amount, TypeCredit, description, after)
	return after, nil
}

// Debit subtracts amount. It never drives the balance negative.
func (l *Ledger) Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return l.Spend(ctx, userID, amount, description, MsgInsufficientCoins, func(context.Context) error { return nil })
}

// Set overwrites the balance. The journal row carries the signed delta so
// balance_after still reconciles.
func (l *Ledger) Set(ctx context.Context, userID int64, balance decimal.Decimal, description string) (decimal.Decimal, error) {
	u, err := l.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := l.balances.SetBalance(ctx, userID, balance); err != nil {
		return decimal.Zero, fmt.Errorf("set balance of user %d: %w", userID, err)
	}
	delta := balance.Sub(u.OACoins)
	switch {
	case delta.IsPositive():
		l.record(ctx, userID, delta, TypeCredit, description, balance)
	case delta.IsNegative():
		l.record(ctx, userID, delta.Neg(), TypeDebit, description, balance)
	}
	return balance, nil
}

// Spend debits amount, runs action, and restores the previous balance if the
// action fails. The journal row is written only after the action succeeded.
func (l *Ledger) Spend(ctx context.Context, userID int64, amount decimal.Decimal, description, insufficientMsg string, action func(context.Context) error) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(MsgAmountNotPositive)
	}
	u, err := l.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	before := u.OACoins
	if before.LessThan(amount) {
		return decimal.Zero, Insufficient(insufficientMsg, before, amount)
	}
	after := before.Sub(amount)

	err = WithCompensation(ctx,
		func(ctx context.Context) error {
			if err := l.balances.SetBalance(ctx, userID, after); err != nil {
				return fmt.Errorf("debit user %d: %w", userID, err)
			}
			return nil
		},
		action,
		func(ctx context.Context) error {
			l.log.WithFields(logrus.Fields{"user_id": userID, "balance": before.String()}).Warn("ledger: restoring balance")
			return l.balances.SetBalance(ctx, userID, before)
		},
	)
	if err != nil {
		return decimal.Zero, err
	}
	l.record(ctx, userID, amount, TypeDebit, description, after)
	return after, nil
}

// record appends to the journal. The balance is already committed, so a
// failed append is logged rather than returned.
func (l *Ledger) record(ctx context.Context, userID int64, amount decimal.Decimal, kind, description string, after decimal.Decimal) {
	err := l.journal.Append(ctx, Transaction{
		UserID:          userID,
		Amount:          amount,
		TransactionType: kind,
		Description:     description,
		BalanceAfter:    after,
	})
	if err != nil {
		l.log.WithError(err).WithField("user_id", userID).Error("ledger: journal append failed")
	}
}

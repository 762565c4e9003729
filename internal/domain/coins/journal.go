package coins

import (
	"context"
	"fmt"
	"time"

	"oahelper-api/internal/supabase"

	"github.com/shopspring/decimal"
)

const (
	TypeCredit = "credit"
	TypeDebit  = "debit"

	journalTable = "oacoins_transactions"
)

// Transaction is an append-only ledger row.
type Transaction struct {
	ID              int64           `json:"id,omitempty"`
	UserID          int64           `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	Description     string          `json:"description"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	CreatedAt       supabase.Time   `json:"created_at"`
}

type Journal struct {
	db  *supabase.Client
	now func() time.Time
}

func NewJournal(db *supabase.Client, now func() time.Time) *Journal {
	if now == nil {
		now = time.Now
	}
	return &Journal{db: db, now: now}
}

func (j *Journal) Append(ctx context.Context, tx Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = supabase.NewTime(j.now())
	}
	if err := j.db.Insert(ctx, journalTable, tx); err != nil {
		return fmt.Errorf("append %s for user %d: %w", tx.TransactionType, tx.UserID, err)
	}
	return nil
}

// ListForUser returns the newest transactions first.
func (j *Journal) ListForUser(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	q := supabase.NewQuery().Eq("user_id", userID).Order("created_at", true).Limit(limit)
	out := []Transaction{}
	if err := j.db.Select(ctx, journalTable, q, &out); err != nil {
		return nil, fmt.Errorf("list transactions for user %d: %w", userID, err)
	}
	return out, nil
}

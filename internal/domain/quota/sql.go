package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyRequest is a row of user_daily_requests.
type DailyRequest struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       string    `gorm:"type:text;not null;uniqueIndex:idx_daily_user_date"`
	RequestDate  string    `gorm:"type:date;not null;uniqueIndex:idx_daily_user_date"`
	RequestCount int       `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (DailyRequest) TableName() string { return dailyTable }

// QuestionAccessRow is a row of user_question_access.
type QuestionAccessRow struct {
	ID                int64     `gorm:"primaryKey"`
	UserID            string    `gorm:"type:text;not null;uniqueIndex:idx_access_user_company"`
	CompanyID         int64     `gorm:"not null;uniqueIndex:idx_access_user_company"`
	QuestionsAccessed int       `gorm:"not null;default:1"`
	UpdatedAt         time.Time
}

func (QuestionAccessRow) TableName() string { return accessTable }

// SQLCounters talks to Postgres directly and increments with a single
// INSERT ... ON CONFLICT DO UPDATE ... RETURNING statement.
type SQLCounters struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLCounters(db *gorm.DB, now func() time.Time) *SQLCounters {
	if now == nil {
		now = time.Now
	}
	return &SQLCounters{db: db, now: now}
}

func (c *SQLCounters) DailyCount(ctx context.Context, userID, day string) (int, error) {
	var row DailyRequest
	err := c.db.WithContext(ctx).Where("user_id = ? AND request_date = ?", userID, day).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("daily count for %s: %w", userID, err)
	}
	return row.RequestCount, nil
}

func (c *SQLCounters) IncrementDaily(ctx context.Context, userID, day string) (int, error) {
	now := c.now().UTC()
	row := DailyRequest{UserID: userID, RequestDate: day, RequestCount: 1, CreatedAt: now, UpdatedAt: now}
	err := upsertDaily(c.db.WithContext(ctx), &row).Error
	if err != nil {
		return 0, fmt.Errorf("increment daily count for %s: %w", userID, err)
	}
	return row.RequestCount, nil
}

func (c *SQLCounters) QuestionAccess(ctx context.Context, userID string, companyID int64) (int, error) {
	var row QuestionAccessRow
	err := c.db.WithContext(ctx).Where("user_id = ? AND company_id = ?", userID, companyID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultQuestionAccess, nil
	}
	if err != nil {
		return 0, fmt.Errorf("question access for %s: %w", userID, err)
	}
	return row.QuestionsAccessed, nil
}

func (c *SQLCounters) IncrementQuestionAccess(ctx context.Context, userID string, companyID int64) (int, error) {
	now := c.now().UTC()
	row := QuestionAccessRow{UserID: userID, CompanyID: companyID, QuestionsAccessed: DefaultQuestionAccess + 1, UpdatedAt: now}
	err := upsertAccess(c.db.WithContext(ctx), &row).Error
	if err != nil {
		return 0, fmt.Errorf("increment question access for %s: %w", userID, err)
	}
	return row.QuestionsAccessed, nil
}

func upsertDaily(tx *gorm.DB, row *DailyRequest) *gorm.DB {
	return tx.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "request_date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"request_count": gorm.Expr(dailyTable + ".request_count + 1"),
				"updated_at":    row.UpdatedAt,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "request_count"}}},
	).Create(row)
}

func upsertAccess(tx *gorm.DB, row *QuestionAccessRow) *gorm.DB {
	return tx.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"questions_accessed": gorm.Expr(accessTable + ".questions_accessed + 1"),
				"updated_at":         row.UpdatedAt,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "questions_accessed"}}},
	).Create(row)
}

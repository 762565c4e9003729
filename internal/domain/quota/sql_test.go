package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=oahelper dbname=oahelper sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestSQLIncrementsAreSingleStatements(t *testing.T) {
	db := dryRunDB(t)
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	daily := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return upsertDaily(tx, &DailyRequest{UserID: "1", RequestDate: "2025-01-15", RequestCount: 1, CreatedAt: now, UpdatedAt: now})
	})
	assert.Contains(t, daily, `INSERT INTO "user_daily_requests"`)
	assert.Contains(t, daily, `ON CONFLICT ("user_id","request_date") DO UPDATE SET`)
	assert.Contains(t, daily, `user_daily_requests.request_count + 1`)
	assert.Contains(t, daily, `RETURNING`)

	access := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return upsertAccess(tx, &QuestionAccessRow{UserID: "1", CompanyID: 4, QuestionsAccessed: DefaultQuestionAccess + 1, UpdatedAt: now})
	})
	assert.Contains(t, access, `ON CONFLICT ("user_id","company_id") DO UPDATE SET`)
	assert.Contains(t, access, `user_question_access.questions_accessed + 1`)
}

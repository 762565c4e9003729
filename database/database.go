package database

import (
	"errors"
	"fmt"

	"oahelper-api/internal/domain/quota"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoDSN = errors.New("DB_URL not set")

// Open connects to the direct Postgres DSN used by the atomic quota counters
// and migrates the counter tables. Every other table is reached through the
// REST interface.
func Open(dsn string, log *logrus.Entry) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.WithError(err).Error("❌ Failed to connect to database")
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// ✅ Counter tables carry the unique keys the upserts conflict on
	if err := db.AutoMigrate(
		&quota.DailyRequest{},
		&quota.QuestionAccessRow{},
	); err != nil {
		log.WithError(err).Error("❌ AutoMigrate error")
		return nil, fmt.Errorf("migrate counter tables: %w", err)
	}

	log.Info("✅ Connected and migrated counter tables")
	return db, nil
}

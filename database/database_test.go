package database

import (
	"testing"

	"oahelper-api/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithoutDSN(t *testing.T) {
	db, err := Open("", logger.Discard())
	require.ErrorIs(t, err, ErrNoDSN)
	assert.Nil(t, db)
	assert.Equal(t, "DB_URL not set", err.Error())
}

package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignupActivityBucketsByDay(t *testing.T) {
	first := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	signups := []time.Time{
		time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 9, 23, 59, 0, 0, time.UTC),
		time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 8, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 16, 1, 0, 0, 0, time.UTC),
	}
	days := signupActivity(first, signups)

	assert.Len(t, days, activityDays)
	assert.Equal(t, ActivityDay{Date: "Jan 9", Users: 2}, days[0])
	assert.Equal(t, ActivityDay{Date: "Jan 15", Users: 1}, days[6])
	total := 0
	for _, d := range days {
		total += d.Users
	}
	assert.Equal(t, 3, total, "signups outside the window are ignored")
}

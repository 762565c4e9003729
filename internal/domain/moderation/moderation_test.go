package moderation_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/domain/moderation"
	"oahelper-api/internal/platform/logger"
	"oahelper-api/internal/supabase/supabasetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, clock *time.Time) (*moderation.Service, *supabasetest.Server) {
	srv := supabasetest.New(t)
	return moderation.NewService(srv.Client(), logger.Discard(), func() time.Time { return *clock }), srv
}

func message(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected business error, got %v", err)
	return appErr.Message
}

func TestReportCooldown(t *testing.T) {
	clock := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	svc, srv := newService(t, &clock)
	ctx := context.Background()
	report := moderation.NewReport{
		Type: "question", QuestionID: 12, UserEmail: "alice@gmail.com",
		Description: "Sample output is wrong", QuestionLink: "https://oahelper.in/q/12",
	}

	require.NoError(t, svc.SubmitReport(ctx, report))
	assert.Equal(t, moderation.MsgRecentlyReported, message(t, svc.SubmitReport(ctx, report)))

	other := report
	other.Type = "solution"
	require.NoError(t, svc.SubmitReport(ctx, other), "cooldown is per table")

	clock = clock.Add(moderation.ReportCooldown + time.Minute)
	require.NoError(t, svc.SubmitReport(ctx, report))
	assert.Len(t, srv.Rows(moderation.QuestionReports), 2)
}

func TestReportValidation(t *testing.T) {
	clock := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	svc, srv := newService(t, &clock)
	ctx := context.Background()

	cases := []struct {
		in   moderation.NewReport
		want string
	}{
		{moderation.NewReport{Type: "question", QuestionID: 1, UserEmail: "a@gmail.com", Description: "x"}, moderation.MsgAllFieldsRequired},
		{moderation.NewReport{Type: "company", QuestionID: 1, UserEmail: "a@gmail.com", Description: "x", QuestionLink: "l"}, moderation.MsgInvalidType},
		{moderation.NewReport{Type: "question", QuestionID: 1, UserEmail: "not-an-email", Description: "x", QuestionLink: "l"}, moderation.MsgInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, message(t, svc.SubmitReport(ctx, tc.in)))
		})
	}
	assert.Empty(t, srv.Requests())
}

func TestReportsMergedNewestFirst(t *testing.T) {
	clock := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	svc, srv := newService(t, &clock)
	srv.Seed(moderation.QuestionReports,
		supabasetest.Row{"question_id": 1, "user_email": "a@gmail.com", "status": "pending", "created_at": "2025-01-10T00:00:00Z"},
		supabasetest.Row{"question_id": 2, "user_email": "b@gmail.com", "status": "resolved", "created_at": "2025-01-12T00:00:00Z"},
	)
	srv.Seed(moderation.SolutionReports,
		supabasetest.Row{"question_id": 3, "user_email": "c@gmail.com", "status": "pending", "created_at": "2025-01-11T00:00:00Z"},
	)
	ctx := context.Background()

	all, err := svc.Reports(ctx, "all", "all")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[0].QuestionID)
	assert.Equal(t, moderation.SolutionReports, all[1].TableName)

	pending, err := svc.Reports(ctx, "", "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, svc.UpdateReport(ctx, "solution_reports", all[1].ID, "resolved", "fixed"))
	assert.Equal(t, moderation.MsgInvalidStatus, message(t, svc.UpdateReport(ctx, "question_reports", 1, "closed", "")))
	assert.Equal(t, moderation.MsgInvalidTable, message(t, svc.DeleteReport(ctx, "Users", 1)))

	require.NoError(t, svc.DeleteReport(ctx, "question", all[0].ID))
	assert.Len(t, srv.Rows(moderation.QuestionReports), 1)
}

func TestFeedback(t *testing.T) {
	clock := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	svc, srv := newService(t, &clock)
	ctx := context.Background()

	assert.Equal(t, moderation.MsgFeedbackType, message(t, svc.SubmitFeedback(ctx, moderation.NewFeedback{Type: "rant", Text: "long enough text"})))
	assert.Equal(t, moderation.MsgFeedbackTooShort, message(t, svc.SubmitFeedback(ctx, moderation.NewFeedback{Type: "bug", Text: " short "})))
	assert.Equal(t, moderation.MsgFeedbackTooLong, message(t, svc.SubmitFeedback(ctx, moderation.NewFeedback{Type: "bug", Text: strings.Repeat("a", 2001)})))

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.SubmitFeedback(ctx, moderation.NewFeedback{Type: "feature", Text: "Please add dark mode"}))
	}
	assert.Len(t, srv.Rows("feedback"), 3)

	page, p, err := svc.Feedback(ctx, 2, 2, "", "feature")
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, moderation.Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, p)
}

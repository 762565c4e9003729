package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseDecoding(t *testing.T) {
	var body struct {
		UserID     Ref     `json:"user_id"`
		Email      Ref     `json:"email"`
		QuestionID Int     `json:"question_id"`
		CompanyID  Int     `json:"company_id"`
		Days       Int     `json:"days"`
		Amount     Decimal `json:"amount"`
		Missing    Decimal `json:"missing"`
		Junk       Decimal `json:"junk"`
	}
	raw := `{"user_id": 42, "email": " alice@gmail.com ", "question_id": "7", "company_id": "", "days": 3, "amount": "10.5", "junk": "ten"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &body))

	assert.Equal(t, Ref("42"), body.UserID)
	assert.Equal(t, Ref("alice@gmail.com"), body.Email)
	assert.Equal(t, Int(7), body.QuestionID)
	assert.Equal(t, Int(0), body.CompanyID)
	assert.Equal(t, Int(3), body.Days)
	assert.True(t, body.Amount.Valid)
	assert.Equal(t, "10.5", body.Amount.String())
	assert.False(t, body.Missing.Valid)
	assert.False(t, body.Junk.Valid)
}

func TestIsGmail(t *testing.T) {
	cases := map[string]bool{
		"alice@gmail.com":      true,
		" Alice@Gmail.com ":    true,
		"alice@yahoo.com":      false,
		"alice@gmail.com.evil": false,
		"@gmail.com":           false,
		"":                     false,
	}
	for email, want := range cases {
		assert.Equal(t, want, IsGmail(email), email)
	}
}

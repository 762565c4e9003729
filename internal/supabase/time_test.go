package supabase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"2025-01-31T12:00:00Z":             want,
		"2025-01-31T12:00:00+00:00":        want,
		"2025-01-31T17:30:00+05:30":        want,
		"2025-01-31T12:00:00":              want,
		"2025-01-31 12:00:00":              want,
		"2025-01-31T12:00:00.000000":       want,
		"2025-01-31 12:00:00+00":           want,
		"2025-01-31":                       time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		"2025-01-31T12:00:00.123456+00:00": want.Add(123456 * time.Microsecond),
	}
	for raw, expected := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseTime(raw)
			require.NoError(t, err)
			assert.True(t, expected.Equal(got.Time), "got %s", got)
		})
	}

	_, err := ParseTime("next tuesday")
	assert.Error(t, err)
}

func TestTimeJSON(t *testing.T) {
	var row struct {
		Start Time  `json:"start_date"`
		End   *Time `json:"end_date"`
		Seen  Time  `json:"seen"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"2025-01-01 00:00:00","end_date":null,"seen":""}`), &row))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), row.Start.Time)
	assert.Nil(t, row.End)
	assert.True(t, row.Seen.IsZero())

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_date":"2025-01-01T00:00:00Z","end_date":null,"seen":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start_date":12}`), &row))
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("oahelper-api", "warn", &buf)

	log.Info("dropped")
	log.WithField("user_id", 7).Warn("low balance")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "low balance", line["message"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "oahelper-api", line["service"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.Contains(t, line, "timestamp")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, logrus.ErrorLevel, parseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, parseLevel("verbose"))
}

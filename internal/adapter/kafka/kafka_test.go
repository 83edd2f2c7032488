package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	extracted := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	issued := time.Date(2024, 5, 1, 6, 30, 0, 0, time.FixedZone("", 10*60*60))
	ex := domain.Excerpt{
		Profile:     "western-detailed",
		Area:        "Western",
		Text:        "Issued Wednesday morning at 6:30am.\n\nforecast: Showers.",
		IssuedAt:    issued,
		ExtractedAt: extracted,
	}

	msg, err := serializeToMessage(ex)
	require.NoError(t, err)

	assert.Equal(t, []byte("western-detailed"), msg.Key)
	assert.JSONEq(t, `{
		"profile": "western-detailed",
		"area": "Western",
		"text": "Issued Wednesday morning at 6:30am.\n\nforecast: Showers.",
		"issued_at": "2024-05-01T06:30:00+10:00",
		"extracted_at": "2024-05-01T07:00:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "profile", msg.Headers[0].Key)
	assert.Equal(t, []byte("western-detailed"), msg.Headers[0].Value)
	assert.Equal(t, "extracted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(extracted.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_OmitsMissingIssueTime(t *testing.T) {
	msg, err := serializeToMessage(domain.Excerpt{Profile: "western", Text: "Showers."})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.NotContains(t, body, "issued_at")
	assert.Equal(t, "Showers.", body["text"])
}

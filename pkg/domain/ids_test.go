package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "teampulse/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	raw := uuid.NewString()
	id, err := ParseUserID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.String())
	assert.False(t, id.IsNil())
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-uuid"},
		{"nil uuid", uuid.Nil.String()},
		{"truncated", "123e4567-e89b-12d3-a456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFeedbackID(tc.raw)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestIDJSONRoundTrip(t *testing.T) {
	original := NewFeedbackID()

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	// Marshals as a canonical UUID string, not a byte array.
	assert.Equal(t, `"`+original.String()+`"`, string(raw))

	var decoded FeedbackID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}

func TestIDTypesAreDistinct(t *testing.T) {
	var record struct {
		User UserID     `json:"user"`
		Team TeamID     `json:"team"`
		Nil  *TeamID    `json:"nil,omitempty"`
		Feed FeedbackID `json:"feed"`
	}
	record.User = NewUserID()
	record.Team = NewTeamID()
	record.Feed = NewFeedbackID()

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(raw), record.User.String())
	assert.Contains(t, string(raw), record.Feed.String())
}

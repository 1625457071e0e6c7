package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teampulse/pkg/domain"
)

func entryAt(feedbackID domain.FeedbackID, editedAt time.Time, version int) Entry {
	return Entry{
		ID:         domain.NewEntryID(),
		FeedbackID: feedbackID,
		Previous: Snapshot{
			Strengths:      "before",
			AreasToImprove: "before",
			Sentiment:      "neutral",
			Version:        version,
		},
		EditedBy:   domain.NewUserID(),
		EditReason: "edited fields: strengths",
		EditedAt:   editedAt,
	}
}

func TestListByFeedbackNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	feedbackID := domain.NewFeedbackID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := entryAt(feedbackID, base, 1)
	second := entryAt(feedbackID, base.Add(time.Minute), 2)
	third := entryAt(feedbackID, base.Add(2*time.Minute), 3)
	for _, entry := range []Entry{second, first, third} {
		require.NoError(t, s.Append(ctx, entry))
	}
	// An entry for another record never leaks in.
	require.NoError(t, s.Append(ctx, entryAt(domain.NewFeedbackID(), base, 1)))

	entries, err := s.ListByFeedback(ctx, feedbackID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
	assert.Equal(t, first.ID, entries[2].ID)
}

func TestDeleteMany(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	feedbackID := domain.NewFeedbackID()
	base := time.Now()

	kept := entryAt(feedbackID, base, 1)
	doomed := entryAt(feedbackID, base.Add(time.Minute), 2)
	require.NoError(t, s.Append(ctx, kept))
	require.NoError(t, s.Append(ctx, doomed))

	deleted, err := s.DeleteMany(ctx, []domain.EntryID{doomed.ID, domain.NewEntryID()})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 1, s.CountByFeedback(feedbackID))

	entries, err := s.ListByFeedback(ctx, feedbackID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, kept.ID, entries[0].ID)
}

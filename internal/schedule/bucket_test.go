package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classweek/classweek-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestBuildDaysBucketsByDate(t *testing.T) {
	w := ActiveWindow(date(2024, time.March, 2, 8, 0))

	events := []models.Event{
		{
			ID:       "ct-1",
			Type:     models.EventTypeClassTest,
			Date:     "2024-03-02",
			Subject:  strPtr("HUM 277"),
			OccursAt: date(2024, time.March, 2, 12, 30),
		},
		{
			ID:       "note-1",
			Type:     models.EventTypeNote,
			Date:     "2024-03-03",
			NoteText: strPtr("Bring Calculator"),
			OccursAt: date(2024, time.March, 3, 0, 0),
		},
	}

	days := BuildDays(w, events)
	require.Len(t, days, 5)

	assert.Equal(t, "2024-03-02", days[0].Date)
	assert.Equal(t, "Saturday", days[0].DayName)
	require.Len(t, days[0].ClassTests, 1)
	assert.Equal(t, "HUM 277", *days[0].ClassTests[0].Subject)
	assert.False(t, days[0].IsDayOff)

	require.NotNil(t, days[1].Note)
	assert.Equal(t, "Bring Calculator", *days[1].Note.NoteText)
	assert.Empty(t, days[1].ClassTests)
	assert.False(t, days[1].IsDayOff)

	assert.True(t, days[2].IsDayOff)
	assert.True(t, days[3].IsDayOff)
	assert.True(t, days[4].IsDayOff)
}

func TestBuildDaysLastNoteWins(t *testing.T) {
	w := ActiveWindow(date(2024, time.March, 2, 8, 0))

	events := []models.Event{
		{ID: "note-old", Type: models.EventTypeNote, Date: "2024-03-04", NoteText: strPtr("old")},
		{ID: "note-new", Type: models.EventTypeNote, Date: "2024-03-04", NoteText: strPtr("new")},
	}

	days := BuildDays(w, events)
	require.NotNil(t, days[2].Note)
	assert.Equal(t, "note-new", days[2].Note.ID)
	assert.Equal(t, "new", *days[2].Note.NoteText)
}

func TestBuildDaysDropsEventsOutsideWindow(t *testing.T) {
	w := ActiveWindow(date(2024, time.March, 2, 8, 0))

	events := []models.Event{
		{ID: "out-1", Type: models.EventTypeClassTest, Date: "2024-03-09", Subject: strPtr("CSE 115")},
		{ID: "out-2", Type: models.EventTypeNote, Date: "2024-02-28", NoteText: strPtr("stale")},
	}

	days := BuildDays(w, events)
	for _, d := range days {
		assert.Empty(t, d.ClassTests)
		assert.Nil(t, d.Note)
		assert.True(t, d.IsDayOff)
	}
}

func TestBuildDaysPreservesOrderWithinBuckets(t *testing.T) {
	w := ActiveWindow(date(2024, time.March, 2, 8, 0))

	events := []models.Event{
		{ID: "ct-early", Type: models.EventTypeClassTest, Date: "2024-03-02", OccursAt: date(2024, time.March, 2, 9, 0)},
		{ID: "skip-1", Type: models.EventTypeSkip, Date: "2024-03-02", OccursAt: date(2024, time.March, 2, 10, 0)},
		{ID: "ct-late", Type: models.EventTypeClassTest, Date: "2024-03-02", OccursAt: date(2024, time.March, 2, 14, 0)},
		{ID: "resched-1", Type: models.EventTypeReschedule, Date: "2024-03-02", OccursAt: date(2024, time.March, 2, 15, 0)},
	}

	days := BuildDays(w, events)
	require.Len(t, days[0].ClassTests, 2)
	assert.Equal(t, "ct-early", days[0].ClassTests[0].ID)
	assert.Equal(t, "ct-late", days[0].ClassTests[1].ID)
	require.Len(t, days[0].Skipped, 1)
	require.Len(t, days[0].Reschedules, 1)
	assert.False(t, days[0].IsDayOff)
}

func TestBuildDaysEmptyWindowGrid(t *testing.T) {
	days := BuildDays(ActiveWindow(date(2024, time.March, 2, 8, 0)), nil)
	require.Len(t, days, 5)
	for _, d := range days {
		assert.NotNil(t, d.ClassTests)
		assert.NotNil(t, d.Reschedules)
		assert.NotNil(t, d.Skipped)
		assert.True(t, d.IsDayOff)
	}
}

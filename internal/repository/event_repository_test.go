package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classweek/classweek-api/internal/models"
)

func newEventMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventRows(events ...models.Event) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "type", "date", "day_name", "occurs_at", "subject", "teacher",
		"start_time", "duration_minutes", "room", "topics", "note_text",
		"created_at", "updated_at",
	})
	for _, ev := range events {
		rows.AddRow(ev.ID, string(ev.Type), ev.Date, ev.DayName, ev.OccursAt,
			ev.Subject, ev.Teacher, ev.StartTime, ev.DurationMinutes, ev.Room,
			ev.Topics, ev.NoteText, ev.CreatedAt, ev.UpdatedAt)
	}
	return rows
}

func TestEventRepositoryListByRangeFiltersTypes(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	from := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 6, 23, 59, 59, 0, time.UTC)

	subject := "HUM 277"
	rows := eventRows(models.Event{
		ID:       "ct-1",
		Type:     models.EventTypeClassTest,
		Date:     "2024-03-02",
		DayName:  "Saturday",
		OccursAt: from.Add(12 * time.Hour),
		Subject:  &subject,
	})

	mock.ExpectQuery(`SELECT .+ FROM events WHERE occurs_at >= \$1 AND occurs_at <= \$2 AND type = ANY\(\$3\) ORDER BY occurs_at ASC`).
		WithArgs(from, to, pq.Array([]string{"CT", "RESCHEDULE", "SKIP"})).
		WillReturnRows(rows)

	events, err := repo.ListByRange(context.Background(), from, to,
		[]models.EventType{models.EventTypeClassTest, models.EventTypeReschedule, models.EventTypeSkip})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ct-1", events[0].ID)
	assert.Equal(t, "HUM 277", *events[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByRangeWithoutTypes(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	from := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 11)

	mock.ExpectQuery(`SELECT .+ FROM events WHERE occurs_at >= \$1 AND occurs_at <= \$2 ORDER BY occurs_at ASC`).
		WithArgs(from, to).
		WillReturnRows(eventRows())

	events, err := repo.ListByRange(context.Background(), from, to, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryFindNoteByDate(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	text := "Bring Calculator"
	rows := eventRows(models.Event{
		ID:       "note-1",
		Type:     models.EventTypeNote,
		Date:     "2024-03-03",
		DayName:  "Sunday",
		NoteText: &text,
	})

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at ASC LIMIT 1`)).
		WithArgs("NOTE", "2024-03-03").
		WillReturnRows(rows)

	note, err := repo.FindNoteByDate(context.Background(), "2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, "note-1", note.ID)
	assert.Equal(t, "Bring Calculator", *note.NoteText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryFindNoteByDateMissing(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM events WHERE type = \$1 AND date = \$2`).
		WithArgs("NOTE", "2024-03-04").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindNoteByDate(context.Background(), "2024-03-04")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateAssignsIDAndTimestamps(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &models.Event{
		Type:     models.EventTypeSkip,
		Date:     "2024-03-05",
		DayName:  "Tuesday",
		OccursAt: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.False(t, event.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdatePreservesCreatedAt(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("UPDATE events SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	event := &models.Event{ID: "note-1", Type: models.EventTypeNote, Date: "2024-03-03", CreatedAt: created}
	require.NoError(t, repo.Update(context.Background(), event))
	assert.Equal(t, created, event.CreatedAt)
	assert.True(t, event.UpdatedAt.After(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newEventMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("DELETE FROM events WHERE id").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}

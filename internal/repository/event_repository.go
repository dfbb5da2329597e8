package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classweek/classweek-api/internal/models"
)

const eventColumns = `id, type, date, day_name, occurs_at, subject, teacher, start_time, duration_minutes, room, topics, note_text, created_at, updated_at`

// EventRepository persists schedule events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListByRange returns events whose occurs_at falls inside [from, to], in
// ascending occurs_at order. An optional type set narrows the query.
func (r *EventRepository) ListByRange(ctx context.Context, from, to time.Time, types []models.EventType) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE occurs_at >= $1 AND occurs_at <= $2`, eventColumns)
	args := []interface{}{from, to}
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		query += ` AND type = ANY($3)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY occurs_at ASC`

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindNoteByDate returns the note for a calendar date, or sql.ErrNoRows. The
// oldest note wins when duplicates exist, matching the lookup the overwrite
// rule was written against.
func (r *EventRepository) FindNoteByDate(ctx context.Context, date string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE type = $1 AND date = $2 ORDER BY created_at ASC LIMIT 1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, string(models.EventTypeNote), date); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	query := `INSERT INTO events (id, type, date, day_name, occurs_at, subject, teacher, start_time, duration_minutes, room, topics, note_text, created_at, updated_at)
VALUES (:id, :type, :date, :day_name, :occurs_at, :subject, :teacher, :start_time, :duration_minutes, :room, :topics, :note_text, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update overwrites an event's mutable fields, preserving id and created_at.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	query := `UPDATE events SET type = :type, date = :date, day_name = :day_name, occurs_at = :occurs_at,
subject = :subject, teacher = :teacher, start_time = :start_time, duration_minutes = :duration_minutes,
room = :room, topics = :topics, note_text = :note_text, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event by id; sql.ErrNoRows when nothing matched.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// failure, used by the note upsert to detect a lost insert race.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

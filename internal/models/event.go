package models

import "time"

// EventType discriminates the event variants stored in the events table.
type EventType string

const (
	EventTypeClassTest  EventType = "CT"
	EventTypeReschedule EventType = "RESCHEDULE"
	EventTypeSkip       EventType = "SKIP"
	EventTypeNote       EventType = "NOTE"
)

// Valid reports whether the type is one of the four known variants.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeClassTest, EventTypeReschedule, EventTypeSkip, EventTypeNote:
		return true
	}
	return false
}

// Event is a single schedule entry: a class test, a reschedule, a skipped
// class or a free-text note. Type-specific fields are nullable; Date is the
// calendar day (no timezone) and OccursAt the absolute instant used for range
// filtering and ordering.
type Event struct {
	ID              string    `db:"id" json:"id"`
	Type            EventType `db:"type" json:"type"`
	Date            string    `db:"date" json:"date"`
	DayName         string    `db:"day_name" json:"day_name"`
	OccursAt        time.Time `db:"occurs_at" json:"occurs_at"`
	Subject         *string   `db:"subject" json:"subject,omitempty"`
	Teacher         *string   `db:"teacher" json:"teacher,omitempty"`
	StartTime       *string   `db:"start_time" json:"start_time,omitempty"`
	DurationMinutes *int      `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Room            *string   `db:"room" json:"room,omitempty"`
	Topics          *string   `db:"topics" json:"topics,omitempty"`
	NoteText        *string   `db:"note_text" json:"note_text,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

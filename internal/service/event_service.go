package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classweek/classweek-api/internal/models"
	"github.com/classweek/classweek-api/internal/repository"
	"github.com/classweek/classweek-api/internal/schedule"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
)

type eventRepository interface {
	ListByRange(ctx context.Context, from, to time.Time, types []models.EventType) ([]models.Event, error)
	FindNoteByDate(ctx context.Context, date string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type changeNotifier interface {
	DeleteByPattern(ctx context.Context, pattern string) error
	Publish(ctx context.Context, channel, payload string)
}

const scheduleCachePattern = "schedule:*"

// CreateEventRequest is the admin create-form payload. Which fields are
// required depends on Type; see validate.
type CreateEventRequest struct {
	Type            string `json:"type" validate:"required"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"start_time"`
	Subject         string `json:"subject"`
	Teacher         string `json:"teacher"`
	DurationMinutes *int   `json:"duration_minutes"`
	Room            string `json:"room"`
	Topics          string `json:"topics"`
	NoteText        string `json:"note_text"`
}

// UpsertNoteRequest carries the explicit note endpoint payload.
type UpsertNoteRequest struct {
	Date string `json:"date" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// EventService owns event writes (with per-type validation and the
// one-note-per-date overwrite rule) and the extended-window list reads.
type EventService struct {
	repo      eventRepository
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	channel   string
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger, location *time.Location, channel string) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	return &EventService{repo: repo, notifier: notifier, validator: validate, logger: logger, location: location, channel: channel}
}

// Create validates and stores a new event. NOTE payloads route through the
// overwrite resolver so a second note for a date updates the first.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	eventType := models.EventType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !eventType.Valid() {
		return nil, appErrors.Validation("type", "type must be one of CT, RESCHEDULE, SKIP, NOTE")
	}

	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	if err := s.validateForType(eventType, req); err != nil {
		return nil, err
	}

	if eventType == models.EventTypeNote {
		return s.upsertNote(ctx, day, strings.TrimSpace(req.NoteText))
	}

	occursAt, err := s.occursAt(day, req.StartTime)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Type:      eventType,
		Date:      day.Format(schedule.DateLayout),
		DayName:   day.Weekday().String(),
		OccursAt:  occursAt,
		Subject:   optional(req.Subject),
		Teacher:   optional(req.Teacher),
		StartTime: optional(req.StartTime),
	}
	if eventType == models.EventTypeClassTest {
		event.DurationMinutes = req.DurationMinutes
		event.Room = optional(req.Room)
		event.Topics = optional(req.Topics)
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create event")
	}

	s.notifyChange(ctx, "created", event.ID)
	return event, nil
}

// UpsertNote creates or overwrites the note for a calendar date.
func (s *EventService) UpsertNote(ctx context.Context, req UpsertNoteRequest) (*models.Event, error) {
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Validation("text", "Note text is required.")
	}
	return s.upsertNote(ctx, day, text)
}

// upsertNote is a single logical read-then-write: update the existing note
// for the date preserving its id and created_at, otherwise insert. A
// concurrent insert loses against the partial unique index on note dates and
// is retried once as an update.
func (s *EventService) upsertNote(ctx context.Context, day time.Time, text string) (*models.Event, error) {
	date := day.Format(schedule.DateLayout)

	existing, err := s.repo.FindNoteByDate(ctx, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to look up note")
	}

	if existing != nil {
		existing.NoteText = &text
		existing.DayName = day.Weekday().String()
		existing.OccursAt = s.startOfDay(day)
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update note")
		}
		s.notifyChange(ctx, "note-updated", existing.ID)
		return existing, nil
	}

	event := &models.Event{
		Type:     models.EventTypeNote,
		Date:     date,
		DayName:  day.Weekday().String(),
		OccursAt: s.startOfDay(day),
		NoteText: &text,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if repository.IsUniqueViolation(err) {
			s.logger.Info("note insert raced an existing note, retrying as update", zap.String("date", date))
			return s.retryNoteUpdate(ctx, day, text)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create note")
	}
	s.notifyChange(ctx, "note-created", event.ID)
	return event, nil
}

func (s *EventService) retryNoteUpdate(ctx context.Context, day time.Time, text string) (*models.Event, error) {
	existing, err := s.repo.FindNoteByDate(ctx, day.Format(schedule.DateLayout))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to look up note")
	}
	existing.NoteText = &text
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update note")
	}
	s.notifyChange(ctx, "note-updated", existing.ID)
	return existing, nil
}

// Delete removes an event by id.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete event")
	}
	s.notifyChange(ctx, "deleted", id)
	return nil
}

// List returns events in the extended two-week window, optionally narrowed by
// type and subject substring. Notes are excluded unless asked for; the notes
// view has its own endpoint.
func (s *EventService) List(ctx context.Context, now time.Time, rawTypes []string, subject string) ([]models.Event, schedule.Window, error) {
	window := schedule.ExtendedWindow(now.In(s.location))

	types := make([]models.EventType, 0, len(rawTypes))
	for _, raw := range rawTypes {
		t := models.EventType(strings.ToUpper(strings.TrimSpace(raw)))
		if !t.Valid() {
			return nil, window, appErrors.Validation("types", "unknown event type: "+raw)
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		types = []models.EventType{models.EventTypeClassTest, models.EventTypeReschedule, models.EventTypeSkip}
	}

	events, err := s.repo.ListByRange(ctx, window.Start, window.End, types)
	if err != nil {
		return nil, window, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list events")
	}

	if subject = strings.TrimSpace(subject); subject != "" {
		needle := strings.ToLower(subject)
		filtered := events[:0]
		for _, ev := range events {
			if ev.Subject != nil && strings.Contains(strings.ToLower(*ev.Subject), needle) {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	return events, window, nil
}

// ListNotes returns the notes of the extended two-week window.
func (s *EventService) ListNotes(ctx context.Context, now time.Time) ([]models.Event, schedule.Window, error) {
	window := schedule.ExtendedWindow(now.In(s.location))
	notes, err := s.repo.ListByRange(ctx, window.Start, window.End, []models.EventType{models.EventTypeNote})
	if err != nil {
		return nil, window, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list notes")
	}
	return notes, window, nil
}

func (s *EventService) validateForType(eventType models.EventType, req CreateEventRequest) error {
	switch eventType {
	case models.EventTypeClassTest:
		if strings.TrimSpace(req.Subject) == "" {
			return appErrors.Validation("subject", "Subject is required.")
		}
		if strings.TrimSpace(req.Teacher) == "" {
			return appErrors.Validation("teacher", "Teacher is required.")
		}
		if req.DurationMinutes == nil || *req.DurationMinutes <= 0 {
			return appErrors.Validation("duration_minutes", "Duration must be a positive number.")
		}
		if strings.TrimSpace(req.StartTime) == "" {
			return appErrors.Validation("start_time", "Start time is required.")
		}
		if strings.TrimSpace(req.Topics) == "" {
			return appErrors.Validation("topics", "Topics is required.")
		}
	case models.EventTypeReschedule, models.EventTypeSkip:
		if strings.TrimSpace(req.Subject) == "" {
			return appErrors.Validation("subject", "Subject is required.")
		}
		if strings.TrimSpace(req.Teacher) == "" {
			return appErrors.Validation("teacher", "Teacher is required.")
		}
		if strings.TrimSpace(req.StartTime) == "" {
			return appErrors.Validation("start_time", "Start time is required.")
		}
	case models.EventTypeNote:
		if strings.TrimSpace(req.NoteText) == "" {
			return appErrors.Validation("note_text", "Note text is required.")
		}
	}
	return nil
}

func (s *EventService) parseDate(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(schedule.DateLayout, strings.TrimSpace(raw), s.location)
	if err != nil {
		return time.Time{}, appErrors.Validation("date", "date must be YYYY-MM-DD")
	}
	return day, nil
}

// occursAt combines the calendar date and HH:MM start time into the absolute
// instant range queries filter on. Notes carry no time and sit at 00:00.
func (s *EventService) occursAt(day time.Time, startTime string) (time.Time, error) {
	startTime = strings.TrimSpace(startTime)
	if startTime == "" {
		return s.startOfDay(day), nil
	}
	t, err := time.Parse("15:04", startTime)
	if err != nil {
		return time.Time{}, appErrors.Validation("start_time", "start_time must be HH:MM")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, s.location), nil
}

func (s *EventService) startOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.location)
}

func (s *EventService) notifyChange(ctx context.Context, action, id string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.DeleteByPattern(ctx, scheduleCachePattern); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
	s.notifier.Publish(ctx, s.channel, action+":"+id)
}

func optional(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

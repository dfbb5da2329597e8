package schedule

import (
	"github.com/classweek/classweek-api/internal/models"
)

// Day is the derived per-date view the dashboard renders. It is rebuilt from
// scratch on every refresh and never persisted.
type Day struct {
	Date        string         `json:"date"`
	DayName     string         `json:"day_name"`
	ClassTests  []models.Event `json:"class_tests"`
	Reschedules []models.Event `json:"reschedules"`
	Skipped     []models.Event `json:"skipped"`
	Note        *models.Event  `json:"note,omitempty"`
	IsDayOff    bool           `json:"is_day_off"`
}

// BuildDays buckets events into one Day per calendar date in the window.
// Events are expected in ascending occurs_at order and bucket contents keep
// that order; notes are set rather than appended, so the last note for a date
// wins. Events dated outside the window are dropped, never an error.
func BuildDays(w Window, events []models.Event) []Day {
	dates := w.Days()
	days := make([]Day, len(dates))
	index := make(map[string]int, len(dates))
	for i, d := range dates {
		date := d.Format(DateLayout)
		index[date] = i
		days[i] = Day{
			Date:        date,
			DayName:     d.Weekday().String(),
			ClassTests:  []models.Event{},
			Reschedules: []models.Event{},
			Skipped:     []models.Event{},
		}
	}

	for i := range events {
		ev := events[i]
		pos, ok := index[ev.Date]
		if !ok {
			continue
		}
		day := &days[pos]
		switch ev.Type {
		case models.EventTypeClassTest:
			day.ClassTests = append(day.ClassTests, ev)
		case models.EventTypeReschedule:
			day.Reschedules = append(day.Reschedules, ev)
		case models.EventTypeSkip:
			day.Skipped = append(day.Skipped, ev)
		case models.EventTypeNote:
			day.Note = &events[i]
		}
	}

	for i := range days {
		d := &days[i]
		d.IsDayOff = len(d.ClassTests) == 0 && len(d.Reschedules) == 0 &&
			len(d.Skipped) == 0 && d.Note == nil
	}

	return days
}

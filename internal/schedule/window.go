package schedule

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Window is a closed instant range spanning whole calendar days.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartOfWeek returns the most recent Saturday at 00:00 in now's location.
// Saturday is the first day of the teaching week.
func StartOfWeek(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	diff := (int(d.Weekday()) - int(time.Saturday) + 7) % 7
	return d.AddDate(0, 0, -diff)
}

// ActiveWindow computes the Saturday-through-Wednesday span the schedule grid
// shows. On Thursday and Friday the week is effectively over, so the window
// advances to the upcoming Saturday; on Saturday itself it does not.
func ActiveWindow(now time.Time) Window {
	start := StartOfWeek(now)
	if wd := now.Weekday(); wd == time.Thursday || wd == time.Friday {
		start = start.AddDate(0, 0, 7)
	}
	return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 4))}
}

// ExtendedWindow spans the current week's Saturday through the following
// week's Wednesday (12 days). The events and notes lists use it to show this
// week and next simultaneously; it never looks ahead.
func ExtendedWindow(now time.Time) Window {
	start := StartOfWeek(now)
	return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 11))}
}

// Days lists every calendar date covered by the window, inclusive.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the instant falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999*int(time.Millisecond), d.Location())
}

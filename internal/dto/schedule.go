package dto

import (
	"github.com/classweek/classweek-api/internal/schedule"
)

// WeekScheduleResponse is the bucketed grid the dashboard renders: one Day
// per date of the active Saturday-to-Wednesday window.
type WeekScheduleResponse struct {
	WeekStart string          `json:"week_start"`
	WeekEnd   string          `json:"week_end"`
	Window    schedule.Window `json:"window"`
	Days      []schedule.Day  `json:"days"`
}

// UpcomingClassTest is a class test flattened out of its day bucket for the
// "all CTs this week" overview.
type UpcomingClassTest struct {
	ID              string `json:"id"`
	DayName         string `json:"day_name"`
	Date            string `json:"date"`
	Subject         string `json:"subject"`
	Teacher         string `json:"teacher"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Room            string `json:"room,omitempty"`
	Topics          string `json:"topics,omitempty"`
}

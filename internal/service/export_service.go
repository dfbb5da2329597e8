package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/classweek/classweek-api/internal/dto"
	"github.com/classweek/classweek-api/internal/models"
	"github.com/classweek/classweek-api/internal/schedule"
	"github.com/classweek/classweek-api/pkg/export"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
)

type weekScheduleProvider interface {
	WeekSchedule(ctx context.Context, now time.Time) (*dto.WeekScheduleResponse, bool, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Content     []byte
	Filename    string
	ContentType string
}

var exportHeaders = []string{"Day", "Date", "Type", "Subject", "Teacher", "Start", "Duration", "Room", "Details"}

// ExportService renders the active week grid as CSV or PDF.
type ExportService struct {
	weeks weekScheduleProvider
	csv   *export.CSVExporter
	pdf   *export.PDFExporter
}

// NewExportService constructs the service.
func NewExportService(weeks weekScheduleProvider, csv *export.CSVExporter, pdf *export.PDFExporter) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{weeks: weeks, csv: csv, pdf: pdf}
}

// ExportWeek renders the current week in the requested format (csv or pdf).
func (s *ExportService) ExportWeek(ctx context.Context, now time.Time, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Validation("format", "format must be csv or pdf")
	}

	week, _, err := s.weeks.WeekSchedule(ctx, now)
	if err != nil {
		return nil, err
	}

	data := buildDataset(week)
	title := fmt.Sprintf("Class schedule %s to %s", week.WeekStart, week.WeekEnd)
	base := "schedule-" + week.WeekStart

	switch format {
	case "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Content: content, Filename: base + ".csv", ContentType: "text/csv"}, nil
	default:
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Content: content, Filename: base + ".pdf", ContentType: "application/pdf"}, nil
	}
}

func buildDataset(week *dto.WeekScheduleResponse) export.Dataset {
	rows := []map[string]string{}
	for _, day := range week.Days {
		for _, ev := range day.ClassTests {
			rows = append(rows, eventRow(day, ev))
		}
		for _, ev := range day.Reschedules {
			rows = append(rows, eventRow(day, ev))
		}
		for _, ev := range day.Skipped {
			rows = append(rows, eventRow(day, ev))
		}
		if day.Note != nil {
			rows = append(rows, eventRow(day, *day.Note))
		}
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func eventRow(day schedule.Day, ev models.Event) map[string]string {
	row := map[string]string{
		"Day":  day.DayName,
		"Date": day.Date,
		"Type": string(ev.Type),
	}
	if ev.Subject != nil {
		row["Subject"] = *ev.Subject
	}
	if ev.Teacher != nil {
		row["Teacher"] = *ev.Teacher
	}
	if ev.StartTime != nil {
		row["Start"] = *ev.StartTime
	}
	if ev.DurationMinutes != nil {
		row["Duration"] = fmt.Sprintf("%d min", *ev.DurationMinutes)
	}
	if ev.Room != nil {
		row["Room"] = *ev.Room
	}
	switch {
	case ev.NoteText != nil:
		row["Details"] = *ev.NoteText
	case ev.Topics != nil:
		row["Details"] = *ev.Topics
	}
	return row
}

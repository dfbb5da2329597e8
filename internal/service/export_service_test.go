package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classweek/classweek-api/internal/models"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
)

func TestExportServiceExportWeekCSV(t *testing.T) {
	subject := "HUM 277"
	teacher := "Dr. Rahman"
	start := "12:30"
	duration := 40
	text := "Bring Calculator"
	repo := &stubEventRepo{events: []models.Event{
		{ID: "ct-1", Type: models.EventTypeClassTest, Date: "2024-03-02", Subject: &subject, Teacher: &teacher, StartTime: &start, DurationMinutes: &duration},
		{ID: "note-1", Type: models.EventTypeNote, Date: "2024-03-03", NoteText: &text},
	}}
	svc := NewExportService(newScheduleServiceForTest(repo, nil), nil, nil)

	file, err := svc.ExportWeek(context.Background(), saturdayMorning(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "schedule-2024-03-02.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Date,Type,Subject,Teacher,Start,Duration,Room,Details", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "HUM 277")
	assert.Contains(t, lines[1], "40 min")
	assert.Contains(t, lines[2], "Bring Calculator")
}

func TestExportServiceExportWeekPDF(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewExportService(newScheduleServiceForTest(repo, nil), nil, nil)

	file, err := svc.ExportWeek(context.Background(), saturdayMorning(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "schedule-2024-03-02.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportServiceExportWeekRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(newScheduleServiceForTest(&stubEventRepo{}, nil), nil, nil)

	_, err := svc.ExportWeek(context.Background(), saturdayMorning(), "xlsx")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "format", appErr.Field)
}

func TestExportServiceFormatIsCaseInsensitive(t *testing.T) {
	svc := NewExportService(newScheduleServiceForTest(&stubEventRepo{}, nil), nil, nil)

	file, err := svc.ExportWeek(context.Background(), saturdayMorning(), " CSV ")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
}

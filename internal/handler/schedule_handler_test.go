package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classweek/classweek-api/internal/dto"
	"github.com/classweek/classweek-api/internal/schedule"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
)

type scheduleServiceMock struct {
	week    *dto.WeekScheduleResponse
	tests   []dto.UpcomingClassTest
	weekErr error
}

func (m *scheduleServiceMock) WeekSchedule(ctx context.Context, now time.Time) (*dto.WeekScheduleResponse, bool, error) {
	if m.weekErr != nil {
		return nil, false, m.weekErr
	}
	return m.week, true, nil
}

func (m *scheduleServiceMock) UpcomingClassTests(ctx context.Context, now time.Time) ([]dto.UpcomingClassTest, error) {
	return m.tests, nil
}

func (m *scheduleServiceMock) Watch(ctx context.Context, now func() time.Time) (<-chan dto.WeekScheduleResponse, error) {
	ch := make(chan dto.WeekScheduleResponse, 1)
	if m.week != nil {
		ch <- *m.week
	}
	close(ch)
	return ch, nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC)
}

func testWeek() *dto.WeekScheduleResponse {
	w := schedule.ActiveWindow(fixedNow())
	return &dto.WeekScheduleResponse{
		WeekStart: "2024-03-02",
		WeekEnd:   "2024-03-06",
		Window:    w,
		Days:      schedule.BuildDays(w, nil),
	}
}

func TestScheduleHandlerWeek(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{week: testWeek()}, fixedNow)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/week", nil)
	c.Request = req

	handler.Week(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data dto.WeekScheduleResponse `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-02", body.Data.WeekStart)
	assert.Len(t, body.Data.Days, 5)
	assert.Equal(t, true, body.Meta["cache_hit"])
}

func TestScheduleHandlerWeekStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{weekErr: appErrors.ErrStore}, fixedNow)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/week", nil)
	c.Request = req

	handler.Week(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "STORE_ERROR")
}

func TestScheduleHandlerUpcomingCT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{
		tests: []dto.UpcomingClassTest{{ID: "ct-1", Subject: "HUM 277", Date: "2024-03-02"}},
	}, fixedNow)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/upcoming-ct", nil)
	c.Request = req

	handler.UpcomingCT(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "HUM 277")
}

// streamRecorder adds the CloseNotifier gin's Stream helper requires of the
// response writer.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closeCh chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closeCh: make(chan bool, 1)}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closeCh }

func TestScheduleHandlerStreamEmitsSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{week: testWeek()}, fixedNow)
	w := newStreamRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/week/stream", nil)
	c.Request = req

	handler.Stream(c)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:schedule")
	assert.Contains(t, w.Body.String(), "2024-03-02")
}

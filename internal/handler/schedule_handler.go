package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classweek/classweek-api/internal/dto"
	"github.com/classweek/classweek-api/pkg/response"
)

type scheduleService interface {
	WeekSchedule(ctx context.Context, now time.Time) (*dto.WeekScheduleResponse, bool, error)
	UpcomingClassTests(ctx context.Context, now time.Time) ([]dto.UpcomingClassTest, error)
	Watch(ctx context.Context, now func() time.Time) (<-chan dto.WeekScheduleResponse, error)
}

// ScheduleHandler serves the bucketed week view and its live stream.
type ScheduleHandler struct {
	service scheduleService
	now     func() time.Time
}

// NewScheduleHandler constructs the handler. now is injectable for tests.
func NewScheduleHandler(svc scheduleService, now func() time.Time) *ScheduleHandler {
	if now == nil {
		now = time.Now
	}
	return &ScheduleHandler{service: svc, now: now}
}

// Week godoc
// @Summary Active-week day grid
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/week [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	week, cacheHit, err := h.service.WeekSchedule(c.Request.Context(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, map[string]interface{}{"cache_hit": cacheHit})
}

// UpcomingCT godoc
// @Summary Class tests of the active week, flattened
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/upcoming-ct [get]
func (h *ScheduleHandler) UpcomingCT(c *gin.Context) {
	tests, err := h.service.UpcomingClassTests(c.Request.Context(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests)
}

// Stream godoc
// @Summary Live week grid over server-sent events
// @Description Emits a full snapshot on connect and on every event change.
// @Tags Schedule
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream of week snapshots"
// @Router /schedule/week/stream [get]
func (h *ScheduleHandler) Stream(c *gin.Context) {
	// The request context tears the watcher down when the client goes away,
	// so no update can fire into a disposed subscription.
	snapshots, err := h.service.Watch(c.Request.Context(), h.now)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		snap, ok := <-snapshots
		if !ok {
			return false
		}
		c.SSEvent("schedule", snap)
		return true
	})
}

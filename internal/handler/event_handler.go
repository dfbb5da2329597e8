package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classweek/classweek-api/internal/models"
	"github.com/classweek/classweek-api/internal/schedule"
	"github.com/classweek/classweek-api/internal/service"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
	"github.com/classweek/classweek-api/pkg/response"
)

type eventService interface {
	Create(ctx context.Context, req service.CreateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, now time.Time, types []string, subject string) ([]models.Event, schedule.Window, error)
	ListNotes(ctx context.Context, now time.Time) ([]models.Event, schedule.Window, error)
	UpsertNote(ctx context.Context, req service.UpsertNoteRequest) (*models.Event, error)
}

// EventHandler exposes event reads and the admin-gated writes.
type EventHandler struct {
	service eventService
	now     func() time.Time
}

// NewEventHandler constructs the handler. now is injectable for tests.
func NewEventHandler(svc eventService, now func() time.Time) *EventHandler {
	if now == nil {
		now = time.Now
	}
	return &EventHandler{service: svc, now: now}
}

// List godoc
// @Summary Events of this week and next
// @Tags Events
// @Produce json
// @Param types query string false "Comma-separated types (CT,RESCHEDULE,SKIP)"
// @Param subject query string false "Subject substring filter"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var types []string
	if raw := c.Query("types"); raw != "" {
		types = strings.Split(raw, ",")
	}

	events, window, err := h.service.List(c.Request.Context(), h.now(), types, c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, windowMeta(window))
}

// ListNotes godoc
// @Summary Notes of this week and next
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notes [get]
func (h *EventHandler) ListNotes(c *gin.Context) {
	notes, window, err := h.service.ListNotes(c.Request.Context(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, windowMeta(window))
}

// Create godoc
// @Summary Create a schedule event (admin)
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Delete godoc
// @Summary Delete a schedule event (admin)
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204 {object} nil
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, appErrors.Validation("id", "event id is required"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpsertNote godoc
// @Summary Create or overwrite the note for a date (admin)
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpsertNoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Router /notes [put]
func (h *EventHandler) UpsertNote(c *gin.Context) {
	var req service.UpsertNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	note, err := h.service.UpsertNote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note)
}

func windowMeta(w schedule.Window) map[string]interface{} {
	return map[string]interface{}{
		"window_start": w.Start.Format(schedule.DateLayout),
		"window_end":   w.End.Format(schedule.DateLayout),
	}
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classweek/classweek-api/internal/service"
	"github.com/classweek/classweek-api/pkg/response"
)

type exportService interface {
	ExportWeek(ctx context.Context, now time.Time, format string) (*service.ExportFile, error)
}

// ExportHandler serves week-schedule downloads.
type ExportHandler struct {
	service exportService
	now     func() time.Time
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService, now func() time.Time) *ExportHandler {
	if now == nil {
		now = time.Now
	}
	return &ExportHandler{service: svc, now: now}
}

// Week godoc
// @Summary Download the active week as CSV or PDF
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /schedule/export [get]
func (h *ExportHandler) Week(c *gin.Context) {
	file, err := h.service.ExportWeek(c.Request.Context(), h.now(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/section-scheduler/internal/dto"
	"github.com/noah-isme/section-scheduler/internal/middleware"
	"github.com/noah-isme/section-scheduler/internal/models"
	appErrors "github.com/noah-isme/section-scheduler/pkg/errors"
	"github.com/noah-isme/section-scheduler/pkg/response"
)

type scheduleRunner interface {
	Run(ctx context.Context, req dto.RunScheduleRequest) (*dto.RunReport, error)
	Enqueue(req dto.RunScheduleRequest) (*dto.RunAccepted, error)
	Latest(ctx context.Context) (*dto.RunReport, bool, error)
	Status(ctx context.Context) (*dto.ScheduleStatus, error)
}

type scheduleExporter interface {
	Rows(ctx context.Context) ([]models.ScheduleExportRow, error)
	Render(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
}

// ScheduleHandler exposes scheduling runs and the stored timetable.
type ScheduleHandler struct {
	scheduler scheduleRunner
	exporter  scheduleExporter
}

func NewScheduleHandler(scheduler scheduleRunner, exporter scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, exporter: exporter}
}

// bindRunRequest accepts an empty body as the default request.
func bindRunRequest(c *gin.Context) (dto.RunScheduleRequest, error) {
	var req dto.RunScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid run payload")
	}
	return req, nil
}

// Run godoc
// @Summary Run the section scheduler
// @Description Clears the stored schedule and places every section. An incomplete schedule returns success=false with the unscheduled sections.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.RunScheduleRequest false "Run options"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule/run [post]
func (h *ScheduleHandler) Run(c *gin.Context) {
	req, err := bindRunRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.scheduler.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, middleware.Meta(c))
}

// Enqueue godoc
// @Summary Queue a scheduling run
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.RunScheduleRequest false "Run options"
// @Success 202 {object} response.Envelope
// @Router /schedule/runs [post]
func (h *ScheduleHandler) Enqueue(c *gin.Context) {
	req, err := bindRunRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	accepted, err := h.scheduler.Enqueue(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, accepted)
}

// Latest godoc
// @Summary Latest run report
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/runs/latest [get]
func (h *ScheduleHandler) Latest(c *gin.Context) {
	report, cacheHit, err := h.scheduler.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, report, middleware.Meta(c))
}

// Status godoc
// @Summary Whether a schedule is stored
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/status [get]
func (h *ScheduleHandler) Status(c *gin.Context) {
	status, err := h.scheduler.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, middleware.Meta(c))
}

// List godoc
// @Summary Stored timetable ordered by day and start time
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	rows, err := h.exporter.Rows(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(rows))
	response.JSON(c, http.StatusOK, rows, middleware.Meta(c))
}

// Export godoc
// @Summary Download the timetable
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid export query"))
		return
	}
	file, err := h.exporter.Render(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Content)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-timetable-api/internal/dto"
	"github.com/noah-isme/class-timetable-api/internal/service"
	appErrors "github.com/noah-isme/class-timetable-api/pkg/errors"
	"github.com/noah-isme/class-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Feasibility(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.FeasibilityResponse, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
	Get(ctx context.Context, id string) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id, format string) (*dto.ExportFile, error)
}

type resultCacheFlusher interface {
	Flush(ctx context.Context) error
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableGenerator
	cache   resultCacheFlusher
}

// NewTimetableHandler constructs the handler. cache may be nil when memoization is off.
func NewTimetableHandler(svc *service.TimetableService, cache *service.CacheService) *TimetableHandler {
	return &TimetableHandler{service: svc, cache: cache}
}

// Register mounts the timetable routes on the group.
func (h *TimetableHandler) Register(group *gin.RouterGroup) {
	group.POST("/timetables/feasibility", h.Feasibility)
	group.POST("/timetables", h.Generate)
	group.GET("/timetables/:id", h.Get)
	group.GET("/timetables/:id/export", h.Export)
	group.DELETE("/timetables/:id", h.Delete)
	group.DELETE("/cache/timetables", h.FlushCache)
}

// Feasibility godoc
// @Summary Check whether every course can be satisfied under the time restrictions
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Courses and restrictions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/feasibility [post]
func (h *TimetableHandler) Feasibility(c *gin.Context) {
	req, ok := bindTimetableRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Feasibility(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Generate godoc
// @Summary Generate a conflict-free weekly timetable
// @Description Runs the pre-flight check, searches for a schedule and stores it for later retrieval.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Courses, restrictions and search mode"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	req, ok := bindTimetableRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result, map[string]interface{}{"mode": result.Mode, "cached": result.Cached})
}

// Get godoc
// @Summary Get a generated timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download a generated timetable
// @Tags Timetables
// @Produce application/json,text/csv,application/pdf,text/calendar
// @Param id path string true "Timetable ID"
// @Param format query string false "json, csv, pdf or ics" default(json)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", service.FormatJSON))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Delete godoc
// @Summary Discard a generated timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FlushCache godoc
// @Summary Drop every memoized solver result
// @Tags Timetables
// @Success 204
// @Failure 500 {object} response.Envelope
// @Router /cache/timetables [delete]
func (h *TimetableHandler) FlushCache(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.Flush(c.Request.Context()); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flush timetable cache"))
			return
		}
	}
	response.NoContent(c)
}

func bindTimetableRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return req, false
	}
	return req, true
}

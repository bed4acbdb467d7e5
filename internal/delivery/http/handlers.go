package http

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/service"
	"github.com/smartcity/incidentmap/internal/viewport"
)

// MapDefaults is the initial map view handed to new sessions
type MapDefaults struct {
	Center  domain.Position  `json:"center"`
	Zoom    float64          `json:"zoom"`
	MinZoom int              `json:"min_zoom"`
	MaxZoom int              `json:"max_zoom"`
	Padding viewport.Padding `json:"padding"`
}

// Handler contains all HTTP handlers
type Handler struct {
	mapSvc   *service.MapService
	notices  *Notices
	defaults MapDefaults
	logger   *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(mapSvc *service.MapService, notices *Notices, defaults MapDefaults, logger *zap.Logger) *Handler {
	if notices == nil {
		notices = NewNotices()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		mapSvc:   mapSvc,
		notices:  notices,
		defaults: defaults,
		logger:   logger,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.mapSvc.Health(c.UserContext()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":    status,
		"service":   "incidentmap",
		"version":   "1.0.0",
		"districts": h.mapSvc.Boundaries().Names(),
	})
}

// GetIncidents returns the full snapshot as a bare array, the shape upstream
// incident feeds serve and httpsource reads
func (h *Handler) GetIncidents(c *fiber.Ctx) error {
	incidents, err := h.mapSvc.Snapshot(c.UserContext())
	if err != nil {
		h.logger.Error("snapshot request failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, service.FetchFailureMessage)
	}

	c.Set("X-Total-Count", strconv.Itoa(len(incidents)))
	return c.JSON(incidents)
}

// FilterIncidents runs ?district=&complaint=&callType= against storage and
// returns a bare array like GetIncidents
func (h *Handler) FilterIncidents(c *fiber.Ctx) error {
	var p domain.FilterPredicate
	if err := c.QueryParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid filter parameters")
	}

	incidents, err := h.mapSvc.Filter(c.UserContext(), p)
	if err != nil {
		h.logger.Error("filter request failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "Failed to filter incidents")
	}

	c.Set("X-Total-Count", strconv.Itoa(len(incidents)))
	return c.JSON(incidents)
}

// GetVocabularies returns the dropdown values of the current snapshot
func (h *Handler) GetVocabularies(c *fiber.Ctx) error {
	vocab, err := h.mapSvc.Vocabularies(c.UserContext())
	if err != nil {
		h.logger.Error("vocabulary request failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, service.FetchFailureMessage)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    vocab,
	})
}

// GetBoundaries returns the styled district layer, highlighting ?district=
func (h *Handler) GetBoundaries(c *fiber.Ctx) error {
	fc := h.mapSvc.Boundaries().Styled(c.Query("district"))
	data, err := json.Marshal(fc)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to encode boundaries")
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

// sessionError maps service errors to HTTP errors
func sessionError(err error) error {
	if errors.Is(err, service.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Session error")
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/service"
)

type createSessionRequest struct {
	View service.MapView `json:"view"`
}

type eventRequest struct {
	domain.SelectionEvent
	View service.MapView `json:"view"`
}

type filterRequest struct {
	domain.PredicateUpdate
	View service.MapView `json:"view"`
}

type sessionResponse struct {
	ID           string                 `json:"id"`
	Predicate    domain.FilterPredicate `json:"predicate"`
	Vocabularies domain.Vocabularies    `json:"vocabularies"`
	Map          MapDefaults            `json:"map"`
	Render       *service.RenderResult  `json:"render,omitempty"`
	Notice       *service.Notice        `json:"notice,omitempty"`
}

// parseOptionalBody accepts an empty body
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// CreateSession opens a filter session and returns its initial render.
// A failed snapshot still opens the session; the response then carries the notice.
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	if req.View.Zoom == nil {
		zoom := h.defaults.Zoom
		req.View.Zoom = &zoom
	}

	sess, render := h.mapSvc.CreateSession(c.UserContext(), req.View)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": sessionResponse{
			ID:           sess.ID(),
			Predicate:    sess.ActivePredicate(),
			Vocabularies: sess.Vocabularies(),
			Map:          h.defaults,
			Render:       &render,
			Notice:       h.notices.Take(sess.ID()),
		},
	})
}

// GetSession returns the active predicate and vocabularies
func (h *Handler) GetSession(c *fiber.Ctx) error {
	sess, err := h.mapSvc.Session(c.Params("id"))
	if err != nil {
		return sessionError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": sessionResponse{
			ID:           sess.ID(),
			Predicate:    sess.ActivePredicate(),
			Vocabularies: sess.Vocabularies(),
			Map:          h.defaults,
		},
	})
}

// HandleEvent applies one dropdown change
func (h *Handler) HandleEvent(c *fiber.Ctx) error {
	sess, err := h.mapSvc.Session(c.Params("id"))
	if err != nil {
		return sessionError(err)
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	render, err := sess.Handle(req.SelectionEvent, req.View)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	h.logger.Debug("selection applied",
		zap.String("session", sess.ID()),
		zap.String("kind", string(req.Kind)),
		zap.Uint64("seq", render.Seq),
	)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    render,
	})
}

// UpdateFilter replaces the fields present in the body
func (h *Handler) UpdateFilter(c *fiber.Ctx) error {
	sess, err := h.mapSvc.Session(c.Params("id"))
	if err != nil {
		return sessionError(err)
	}

	var req filterRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	render := sess.SetFilter(req.PredicateUpdate, req.View)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    render,
	})
}

// CloseSession drops a session
func (h *Handler) CloseSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.mapSvc.CloseSession(id); err != nil {
		return sessionError(err)
	}
	h.notices.Take(id)

	return c.JSON(fiber.Map{
		"success": true,
	})
}

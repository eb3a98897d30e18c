package reconciliation

import (
	"errors"

	"purchase-reconciler/core/logger"
	"purchase-reconciler/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reconciliation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the reconciliation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconciliation")
	group.Post("/run", h.HandleRun)
	group.Get("/status", h.HandleStatus)
	group.Post("/updates", h.HandleUpdates)
}

// HandleRun triggers a reconciliation pass and returns its report.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering reconciliation run")

	report, err := h.service.Run(c.UserContext())
	if err != nil {
		l.Error("Reconciliation run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(report)
}

// HandleStatus returns the connection state and the last run report.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleUpdates accepts a purchase update pushed by the provider.
func (h *Handler) HandleUpdates(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	count, err := h.service.Push(c.Body())
	switch {
	case errors.Is(err, ErrInvalidUpdate):
		l.Warn("Rejected purchase update", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, reconcile.ErrNotReady):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Purchase update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Purchase update accepted", zap.Int("purchases", count))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":    "accepted",
		"purchases": count,
	})
}

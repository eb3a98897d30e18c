package reports

import (
	"errors"

	"purchase-reconciler/core/logger"
	"purchase-reconciler/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for archived reports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the report routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reports")
	group.Get("/", h.HandleList)
	group.Get("/:runId", h.HandleGet)
}

// HandleList lists archived report keys. Supports ?date=yyyy/mm/dd.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	keys, err := h.service.List(c.Context(), c.Query("date"))
	if errors.Is(err, ErrInvalidDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if keys == nil {
		keys = []string{}
	}
	return c.JSON(fiber.Map{
		"count":   len(keys),
		"reports": keys,
	})
}

// HandleGet returns one archived report.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	runID := c.Params("runId")

	report, err := h.service.Get(c.Context(), runID)
	if errors.Is(err, reconcile.ErrReportNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report not found", "run_id": runID})
	}
	if err != nil {
		l.Error("Failed to load report", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(report)
}

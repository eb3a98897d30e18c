package reports

import (
	"purchase-reconciler/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the reports feature. A nil archive disables it.
func NewFeature(archive *reconcile.StorageArchive, logger *zap.Logger) *Feature {
	svc := NewService(archive, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reports"
}

// IsEnabled reports whether report archiving is configured.
func (f *Feature) IsEnabled() bool {
	return f.service.archive != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

package reconciliation

import (
	"context"
	"errors"

	"purchase-reconciler/core/billing/push"
	"purchase-reconciler/core/reconcile"

	"go.uber.org/zap"
)

// ErrInvalidUpdate is returned when a pushed update cannot be decoded.
var ErrInvalidUpdate = errors.New("invalid purchase update")

// Status is the engine state exposed over HTTP.
type Status struct {
	State      reconcile.State      `json:"state"`
	LastReport *reconcile.RunReport `json:"last_report"`
}

// Service drives the reconciliation engine.
type Service struct {
	engine *reconcile.Engine
	logger *zap.Logger
}

// NewService creates a new reconciliation service.
func NewService(engine *reconcile.Engine, logger *zap.Logger) *Service {
	return &Service{
		engine: engine,
		logger: logger,
	}
}

// Run performs one reconciliation pass.
func (s *Service) Run(ctx context.Context) (*reconcile.RunReport, error) {
	return s.engine.Run(ctx)
}

// Status returns the connection state and the last report.
func (s *Service) Status() Status {
	return Status{
		State:      s.engine.State(),
		LastReport: s.engine.LastReport(),
	}
}

// Push decodes a provider update and routes it into the open session.
func (s *Service) Push(body []byte) (int, error) {
	result, purchases, err := push.DecodeUpdate(body)
	if err != nil {
		return 0, errors.Join(ErrInvalidUpdate, err)
	}
	if err := s.engine.HandlePurchasesUpdated(result, purchases); err != nil {
		return 0, err
	}
	return len(purchases), nil
}

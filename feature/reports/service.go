package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"purchase-reconciler/core/reconcile"

	"go.uber.org/zap"
)

// DateLayout is the day format used in report keys and the date filter.
const DateLayout = "2006/01/02"

// ErrInvalidDate is returned for a malformed date filter.
var ErrInvalidDate = errors.New("invalid date")

// Service reads archived run reports.
type Service struct {
	archive *reconcile.StorageArchive
	logger  *zap.Logger
}

// NewService creates a new reports service.
func NewService(archive *reconcile.StorageArchive, logger *zap.Logger) *Service {
	return &Service{
		archive: archive,
		logger:  logger,
	}
}

// List returns the archived report keys, optionally for one day.
func (s *Service) List(ctx context.Context, date string) ([]string, error) {
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: date must be yyyy/mm/dd", ErrInvalidDate)
		}
	}
	return s.archive.List(ctx, date)
}

// Get returns one archived report.
func (s *Service) Get(ctx context.Context, runID string) (*reconcile.RunReport, error) {
	return s.archive.Load(ctx, runID)
}

package settings

import (
	"context"
	"errors"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor identifies who performs a change
type Actor struct {
	ID   string
	Meta audit.RequestMeta
}

func (a Actor) createdBy() *uuid.UUID {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil
	}
	return &id
}

// Service manages locations, products and dropdown settings
type Service struct {
	locations repositories.LocationRepository
	products  repositories.ProductRepository
	activity  *audit.Service
	logger    *zap.Logger
}

// NewService creates a new Service
func NewService(locations repositories.LocationRepository, products repositories.ProductRepository, activity *audit.Service, logger *zap.Logger) *Service {
	return &Service{
		locations: locations,
		products:  products,
		activity:  activity,
		logger:    logger,
	}
}

// Dropdown lists the names of active settings under parentID, or the roots when nil
func (s *Service) Dropdown(ctx context.Context, parentID *uuid.UUID) ([]*models.DynamicSetting, error) {
	items, err := s.products.ListActiveSettings(ctx, parentID)
	if err != nil {
		return nil, services.WrapInternal("failed to list settings", err)
	}
	return items, nil
}

// translate maps repository errors onto domain errors
func translate(err error, notFound *services.DomainError, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrDuplicate):
		return services.ErrDuplicateRecord
	default:
		return services.WrapInternal("failed to "+action, err)
	}
}

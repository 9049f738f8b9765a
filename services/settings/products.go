package settings

import (
	"context"
	"strings"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/services"
	"github.com/google/uuid"
)

// ProductInput holds the writable fields of a product
type ProductInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	CategoryID  *string  `json:"category_id" validate:"omitempty,uuid"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	IsActive    *bool    `json:"is_active"`
}

// ListProducts returns a page of products and the total count
func (s *Service) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, int, error) {
	items, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list products", err)
	}
	return items, total, nil
}

// GetProduct returns a product by id
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, services.ErrProductNotFound, "get product")
	}
	return p, nil
}

// CreateProduct creates a product
func (s *Service) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	p := models.NewProduct(strings.TrimSpace(in.Name), in.Price, in.Stock)
	if err := applyProduct(p, in); err != nil {
		return nil, err
	}
	p.CreatedBy = actor.createdBy()

	if err := s.products.Create(ctx, p); err != nil {
		return nil, translate(err, services.ErrProductNotFound, "create product")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityCreate, "products", "product", p.ID.String(), nil, p)
	return p, nil
}

// UpdateProduct replaces the writable fields of a product
func (s *Service) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, in ProductInput) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *p

	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price
	p.Stock = in.Stock
	if err := applyProduct(p, in); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, translate(err, services.ErrProductNotFound, "update product")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityUpdate, "products", "product", p.ID.String(), &previous, p)
	return p, nil
}

// DeleteProduct removes a product
func (s *Service) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return translate(err, services.ErrProductNotFound, "delete product")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityDelete, "products", "product", id.String(), p, nil)
	return nil
}

func applyProduct(p *models.Product, in ProductInput) error {
	p.Description = strings.TrimSpace(in.Description)
	p.CategoryID = nil
	if in.CategoryID != nil && *in.CategoryID != "" {
		id, err := uuid.Parse(*in.CategoryID)
		if err != nil {
			return services.Validation("category_id must be a valid UUID")
		}
		p.CategoryID = &id
	}
	p.Images = []string{}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}

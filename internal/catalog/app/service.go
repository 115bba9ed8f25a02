package app

import (
	"context"
	"strings"

	"github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  ProductRepo
	group singleflight.Group
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

type CreateProductCommand struct {
	Name        string
	Description string
	Price       int64
	Stock       int32
	Category    string
	Image       string
}

func (s *Service) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(cmd.Name),
		Description: strings.TrimSpace(cmd.Description),
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Category:    domain.Category(strings.ToLower(strings.TrimSpace(cmd.Category))),
		Image:       strings.TrimSpace(cmd.Image),
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}

	return s.repo.Create(ctx, p)
}

// GetProduct collapses concurrent lookups of the same id into one repository
// call. The shared call runs detached from any single caller's cancellation;
// each caller still stops waiting when its own context ends.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := apperr.ValidateID("product_id", id); err != nil {
		return domain.Product{}, err
	}

	ch := s.group.DoChan(id, func() (any, error) {
		return s.repo.Get(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Product{}, res.Err
		}
		return res.Val.(domain.Product), nil
	}
}

// UpdateProductCommand carries a partial update: nil fields keep their
// current value. Stock changes go through AdjustStock.
type UpdateProductCommand struct {
	ID          string
	Name        *string
	Description *string
	Price       *int64
	Category    *string
	Image       *string
}

// UpdateProduct changes the catalog entry only. Cart lines keep the price
// they snapshotted when added.
func (s *Service) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error) {
	if err := apperr.ValidateID("product_id", cmd.ID); err != nil {
		return domain.Product{}, err
	}

	p, err := s.repo.Get(ctx, cmd.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if cmd.Name != nil {
		p.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Description != nil {
		p.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Price != nil {
		p.Price = *cmd.Price
	}
	if cmd.Category != nil {
		p.Category = domain.Category(strings.ToLower(strings.TrimSpace(*cmd.Category)))
	}
	if cmd.Image != nil {
		p.Image = strings.TrimSpace(*cmd.Image)
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}

	return s.repo.Update(ctx, p)
}

// DeleteProduct removes the catalog entry. Carts holding the product keep
// their lines and show an empty product summary; checking such a cart out
// fails with not found.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := apperr.ValidateID("product_id", id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) AdjustStock(ctx context.Context, id string, delta int32) (domain.Product, error) {
	if err := apperr.ValidateID("product_id", id); err != nil {
		return domain.Product{}, err
	}
	if delta == 0 {
		return domain.Product{}, apperr.Invalid("delta must not be zero")
	}
	return s.repo.AdjustStock(ctx, id, delta)
}

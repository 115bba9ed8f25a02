package app

import (
	"context"

	"github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
)

// Service is the read side of orders. Orders are only ever written by the
// checkout materializer.
type Service struct {
	repo OrderRepo
}

func NewService(repo OrderRepo) *Service {
	return &Service{repo: repo}
}

// GetOrder returns the order if it belongs to ownerID. Orders of other
// owners are reported as not found.
func (s *Service) GetOrder(ctx context.Context, ownerID, orderID string) (domain.Order, error) {
	if err := apperr.ValidateID("owner_id", ownerID); err != nil {
		return domain.Order{}, err
	}
	if err := apperr.ValidateID("order_id", orderID); err != nil {
		return domain.Order{}, err
	}

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.OwnerID != ownerID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	if err := apperr.ValidateID("owner_id", ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

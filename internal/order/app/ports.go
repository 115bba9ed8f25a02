package app

import (
	"context"

	"github.com/dwikikusuma/shoping-checkout/internal/order/domain"
)

type OrderRepo interface {
	Create(ctx context.Context, order domain.Order) error
	// Get returns domain.ErrOrderNotFound when no order has id.
	Get(ctx context.Context, id string) (domain.Order, error)
	// ListByOwner returns the owner's orders, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
}

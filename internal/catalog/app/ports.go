package app

import (
	"context"

	"github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
)

type ProductRepo interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	// Update writes every field except stock.
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta (possibly negative) to the stock. The result must
	// stay within [0, domain.MaxStock].
	AdjustStock(ctx context.Context, id string, delta int32) (domain.Product, error)
	// ConditionalDecrement removes amount from the stock only if at least
	// amount is available at the instant of the write.
	ConditionalDecrement(ctx context.Context, id string, amount int32) error
}

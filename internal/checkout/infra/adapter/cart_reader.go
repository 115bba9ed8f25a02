package adapter

import (
	"context"
	"errors"

	cartapp "github.com/dwikikusuma/shoping-checkout/internal/cart/app"
	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
)

type CartServiceReader struct {
	svc *cartapp.Service
}

func NewCartServiceReader(svc *cartapp.Service) *CartServiceReader {
	return &CartServiceReader{svc: svc}
}

func (r *CartServiceReader) GetCart(ctx context.Context, ownerID string) ([]checkoutapp.CartItem, error) {
	cart, err := r.svc.Snapshot(ctx, ownerID)
	if errors.Is(err, cartdomain.ErrCartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items := make([]checkoutapp.CartItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, checkoutapp.CartItem{
			LineID:        l.ID,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			PriceSnapshot: l.PriceSnapshot,
		})
	}
	return items, nil
}

package app

import (
	"context"

	"github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
)

// CartRepo stores at most one cart per owner.
type CartRepo interface {
	// GetByOwner returns domain.ErrCartNotFound when the owner has no cart.
	GetByOwner(ctx context.Context, ownerID string) (domain.Cart, error)
	// Save inserts a cart whose Version is 0 and otherwise replaces the
	// stored cart only if its version still matches. A stale cart, or a
	// second insert for the same owner, fails with domain.ErrCartConflict.
	// The returned cart carries the new version.
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	// Delete removes the cart if its version still matches.
	Delete(ctx context.Context, cart domain.Cart) error
}

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (catalogdomain.Product, error)
}

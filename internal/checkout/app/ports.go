package app

import (
	"context"

	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/domain"
	orderdomain "github.com/dwikikusuma/shoping-checkout/internal/order/domain"
)

type CartReader interface {
	// GetCart returns no items when the owner has no cart.
	GetCart(ctx context.Context, ownerID string) ([]CartItem, error)
}

type CartItem struct {
	LineID        string
	ProductID     string
	Quantity      int32
	PriceSnapshot int64
}

type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

type Product struct {
	ID    string
	Name  string
	Price int64
	Stock int32
}

// The stores below are the views of each bounded context a unit of work
// exposes to the materializer.

type CartStore interface {
	GetByOwner(ctx context.Context, ownerID string) (cartdomain.Cart, error)
	Delete(ctx context.Context, cart cartdomain.Cart) error
}

type ProductStore interface {
	Get(ctx context.Context, id string) (catalogdomain.Product, error)
	ConditionalDecrement(ctx context.Context, id string, amount int32) error
}

type OrderStore interface {
	Create(ctx context.Context, order orderdomain.Order) error
}

type Tx interface {
	Carts() CartStore
	Products() ProductStore
	Orders() OrderStore
}

// UnitOfWork runs fn atomically. Every write made through tx is committed
// together when fn returns nil and discarded otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Locker grants one checkout at a time per key.
type Locker interface {
	// Acquire fails with ErrCheckoutInProgress when key is already held.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error
}

// Package memory keeps products, carts and orders in process memory. It
// backs local runs and the service tests, and provides a unit of work with
// the same all-or-nothing semantics as the postgres one.
package memory

import (
	"context"
	"sync"
	"time"

	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	orderdomain "github.com/dwikikusuma/shoping-checkout/internal/order/domain"
)

type state struct {
	products map[string]catalogdomain.Product
	carts    map[string]cartdomain.Cart // by owner
	orders   map[string]orderdomain.Order
}

func newState() *state {
	return &state{
		products: make(map[string]catalogdomain.Product),
		carts:    make(map[string]cartdomain.Cart),
		orders:   make(map[string]orderdomain.Order),
	}
}

// clone copies every map. Carts and orders are stored as clones already, so
// copying the values is enough.
func (s *state) clone() *state {
	out := &state{
		products: make(map[string]catalogdomain.Product, len(s.products)),
		carts:    make(map[string]cartdomain.Cart, len(s.carts)),
		orders:   make(map[string]orderdomain.Order, len(s.orders)),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.carts {
		out.carts[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	return out
}

// access runs fn against a state. Top level repositories lock the store;
// repositories of a unit of work run directly on the staged copy.
type access func(fn func(*state) error) error

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) locked(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) ProductRepo() *ProductRepo {
	return &ProductRepo{run: s.locked, now: s.now}
}

func (s *Store) CartRepo() *CartRepo {
	return &CartRepo{run: s.locked, now: s.now}
}

func (s *Store) OrderRepo() *OrderRepo {
	return &OrderRepo{run: s.locked}
}

// Do runs fn on a private copy of the store and publishes the copy only if
// fn succeeds and ctx is still live. Units of work are serialized.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx checkoutapp.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.st.clone()
	direct := func(fn func(*state) error) error { return fn(staged) }
	tx := &tx{
		products: &ProductRepo{run: direct, now: s.now},
		carts:    &CartRepo{run: direct, now: s.now},
		orders:   &OrderRepo{run: direct},
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st = staged
	return nil
}

type tx struct {
	products *ProductRepo
	carts    *CartRepo
	orders   *OrderRepo
}

func (t *tx) Carts() checkoutapp.CartStore       { return t.carts }
func (t *tx) Products() checkoutapp.ProductStore { return t.products }
func (t *tx) Orders() checkoutapp.OrderStore     { return t.orders }

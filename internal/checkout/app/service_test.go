package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	cartapp "github.com/dwikikusuma/shoping-checkout/internal/cart/app"
	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/shoping-checkout/internal/catalog/app"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/domain"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/infra/adapter"
	orderdomain "github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	"github.com/dwikikusuma/shoping-checkout/internal/store/memory"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	catalog *catalogapp.Service
	cart    *cartapp.Service
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	catalog := catalogapp.NewService(store.ProductRepo())
	return &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   store,
		catalog: catalog,
		cart:    cartapp.NewService(store.CartRepo(), catalog, nil),
		events:  &recordingPublisher{},
	}
}

func (f *fixture) service(uow app.UnitOfWork) *app.Service {
	if uow == nil {
		uow = f.store
	}
	return app.NewService(app.Deps{
		Cart:       adapter.NewCartServiceReader(f.cart),
		Catalog:    adapter.NewCatalogServiceReader(f.catalog),
		UnitOfWork: uow,
		Events:     f.events,
	})
}

func (f *fixture) product(name string, price int64, stock int32) catalogdomain.Product {
	f.t.Helper()
	p, err := f.catalog.CreateProduct(f.ctx, catalogapp.CreateProductCommand{
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "tools",
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) add(owner string, p catalogdomain.Product, qty int32) {
	f.t.Helper()
	_, err := f.cart.AddItem(f.ctx, cartapp.AddItemCommand{OwnerID: owner, ProductID: p.ID, Quantity: qty})
	require.NoError(f.t, err)
}

func (f *fixture) stock(p catalogdomain.Product) int32 {
	f.t.Helper()
	got, err := f.store.ProductRepo().Get(f.ctx, p.ID)
	require.NoError(f.t, err)
	return got.Stock
}

func (f *fixture) orders(owner string) []orderdomain.Order {
	f.t.Helper()
	out, err := f.store.OrderRepo().ListByOwner(f.ctx, owner)
	require.NoError(f.t, err)
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderPlaced
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, evt domain.OrderPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

// wrappedUoW lets a test swap stores of the real unit of work.
type wrappedUoW struct {
	inner app.UnitOfWork
	wrap  func(app.Tx) app.Tx
}

func (u wrappedUoW) Do(ctx context.Context, fn func(context.Context, app.Tx) error) error {
	return u.inner.Do(ctx, func(ctx context.Context, tx app.Tx) error {
		return fn(ctx, u.wrap(tx))
	})
}

type txOverride struct {
	app.Tx
	products app.ProductStore
	orders   app.OrderStore
}

func (t txOverride) Products() app.ProductStore {
	if t.products != nil {
		return t.products
	}
	return t.Tx.Products()
}

func (t txOverride) Orders() app.OrderStore {
	if t.orders != nil {
		return t.orders
	}
	return t.Tx.Orders()
}

type failingOrders struct{}

func (failingOrders) Create(context.Context, orderdomain.Order) error {
	return errors.New("disk full")
}

// staleProducts reports more stock than there is for one product, as a read
// taken before a concurrent checkout would.
type staleProducts struct {
	app.ProductStore
	productID string
}

func (s staleProducts) Get(ctx context.Context, id string) (catalogdomain.Product, error) {
	p, err := s.ProductStore.Get(ctx, id)
	if err == nil && id == s.productID {
		p.Stock += 100
	}
	return p, err
}

func TestPlaceOrder_RoundTrip(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()
	p1 := f.product("Hand trowel", 10, 5)
	p2 := f.product("Seed packet", 5, 5)
	f.add(owner, p1, 2)
	f.add(owner, p2, 1)

	order, err := svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "  Jl. Merdeka 10  "})
	require.NoError(t, err)

	assert.Equal(t, int64(25), order.Total)
	assert.Equal(t, orderdomain.StatusPending, order.Status)
	assert.Equal(t, owner, order.OwnerID)
	assert.Equal(t, "Jl. Merdeka 10", order.ShippingAddress)
	assert.Equal(t, []orderdomain.Line{
		{ProductID: p1.ID, Quantity: 2, Price: 10},
		{ProductID: p2.ID, Quantity: 1, Price: 5},
	}, order.Lines)

	_, err = f.cart.GetCart(f.ctx, owner)
	assert.ErrorIs(t, err, cartdomain.ErrCartNotFound)

	assert.Equal(t, int32(3), f.stock(p1))
	assert.Equal(t, int32(4), f.stock(p2))

	stored := f.orders(owner)
	require.Len(t, stored, 1)
	assert.Equal(t, order.ID, stored[0].ID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, order.ID, f.events.events[0].OrderID)
	assert.Equal(t, int64(25), f.events.events[0].Total)
}

func TestPlaceOrder_UsesSnapshotPrice(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()
	p := f.product("Watering can", 10, 5)
	f.add(owner, p, 2)

	p.Price = 40
	_, err := f.store.ProductRepo().Create(f.ctx, p)
	require.NoError(t, err)

	order, err := svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), order.Total)
	assert.Equal(t, int64(10), order.Lines[0].Price)
}

func TestPlaceOrder_FailureAfterDecrementRollsBack(t *testing.T) {
	f := newFixture(t)
	owner := uuid.NewString()
	p1 := f.product("Hand trowel", 10, 5)
	p2 := f.product("Seed packet", 5, 5)
	f.add(owner, p1, 2)
	f.add(owner, p2, 1)
	before, err := f.cart.GetCart(f.ctx, owner)
	require.NoError(t, err)

	svc := f.service(wrappedUoW{inner: f.store, wrap: func(tx app.Tx) app.Tx {
		return txOverride{Tx: tx, orders: failingOrders{}}
	}})

	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	require.ErrorIs(t, err, apperr.ErrAborted)

	assert.Equal(t, int32(5), f.stock(p1))
	assert.Equal(t, int32(5), f.stock(p2))
	assert.Empty(t, f.orders(owner))
	assert.Empty(t, f.events.events)

	after, err := f.cart.GetCart(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)
	assert.Len(t, after.Lines, 2)
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	p := f.product("Last pruning saw", 30, 1)

	owners := []string{uuid.NewString(), uuid.NewString()}
	for _, o := range owners {
		f.add(o, p, 1)
	}

	errs := make([]error, len(owners))
	var wg sync.WaitGroup
	for i, o := range owners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: o, ShippingAddress: "addr"})
		}()
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrInsufficientStock):
			short++
			var stockErr *catalogdomain.InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			assert.Equal(t, "Last pruning saw", stockErr.ProductName)
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, int32(0), f.stock(p))
}

// sharedUoW runs every unit of work directly against the live store with no
// isolation between them, the way overlapping database transactions see
// each other's committed rows.
type sharedUoW struct {
	store    *memory.Store
	products func(app.ProductStore) app.ProductStore
}

type sharedTx struct {
	carts    app.CartStore
	products app.ProductStore
	orders   app.OrderStore
}

func (t sharedTx) Carts() app.CartStore       { return t.carts }
func (t sharedTx) Products() app.ProductStore { return t.products }
func (t sharedTx) Orders() app.OrderStore     { return t.orders }

func (u sharedUoW) Do(ctx context.Context, fn func(context.Context, app.Tx) error) error {
	return fn(ctx, sharedTx{
		carts:    u.store.CartRepo(),
		products: u.products(u.store.ProductRepo()),
		orders:   u.store.OrderRepo(),
	})
}

// barrierProducts holds every reader until all of them have seen the stock.
type barrierProducts struct {
	app.ProductStore
	reads *sync.WaitGroup
}

func (p barrierProducts) Get(ctx context.Context, id string) (catalogdomain.Product, error) {
	got, err := p.ProductStore.Get(ctx, id)
	p.reads.Done()
	p.reads.Wait()
	return got, err
}

func TestPlaceOrder_OverlappingUnitsNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product("Soil knife", 25, 1)

	const buyers = 4
	owners := make([]string, buyers)
	for i := range owners {
		owners[i] = uuid.NewString()
		f.add(owners[i], p, 1)
	}

	var reads sync.WaitGroup
	reads.Add(buyers)
	svc := f.service(sharedUoW{
		store: f.store,
		products: func(ps app.ProductStore) app.ProductStore {
			return barrierProducts{ProductStore: ps, reads: &reads}
		},
	})

	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i, o := range owners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: o, ShippingAddress: "addr"})
		}()
	}
	wg.Wait()

	// every buyer passed the read check with stock 1; only the conditional
	// decrement can turn the others away
	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, short)
	assert.Equal(t, int32(0), f.stock(p))

	var placed int
	for _, o := range owners {
		placed += len(f.orders(o))
	}
	assert.Equal(t, 1, placed)
}

func TestPlaceOrder_ManyBuyersNeverOversell(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	p := f.product("Compost bin", 12, 3)

	const buyers = 10
	owners := make([]string, buyers)
	for i := range owners {
		owners[i] = uuid.NewString()
		f.add(owners[i], p, 1)
	}

	var mu sync.Mutex
	placed := 0
	var wg sync.WaitGroup
	for _, o := range owners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: o, ShippingAddress: "addr"})
			if err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, placed)
	assert.Equal(t, int32(0), f.stock(p))
}

func TestPlaceOrder_DecrementRaceAbortsWholeUnit(t *testing.T) {
	f := newFixture(t)
	owner := uuid.NewString()
	p1 := f.product("Hand trowel", 10, 5)
	p2 := f.product("Seed packet", 5, 3)
	f.add(owner, p1, 1)
	f.add(owner, p2, 3)

	// someone else bought two packets after the cart was filled
	_, err := f.catalog.AdjustStock(f.ctx, p2.ID, -2)
	require.NoError(t, err)

	svc := f.service(wrappedUoW{inner: f.store, wrap: func(tx app.Tx) app.Tx {
		return txOverride{Tx: tx, products: staleProducts{ProductStore: tx.Products(), productID: p2.ID}}
	}})

	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	var stockErr *catalogdomain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Seed packet", stockErr.ProductName)

	assert.Equal(t, int32(5), f.stock(p1), "earlier decrement must be rolled back")
	assert.Equal(t, int32(1), f.stock(p2))
	assert.Empty(t, f.orders(owner))

	_, err = f.cart.GetCart(f.ctx, owner)
	assert.NoError(t, err)
}

func TestPlaceOrder_StaleStockFailsBeforeAnyDecrement(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()
	p1 := f.product("Hand trowel", 10, 5)
	p2 := f.product("Seed packet", 5, 3)
	f.add(owner, p1, 1)
	f.add(owner, p2, 3)
	_, err := f.catalog.AdjustStock(f.ctx, p2.ID, -1)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Seed packet")
	assert.Equal(t, int32(5), f.stock(p1))
	assert.Equal(t, int32(2), f.stock(p2))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()

	_, err := svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	assert.ErrorIs(t, err, app.ErrEmptyCart)

	// a cart whose last line was removed
	p := f.product("Hand trowel", 10, 5)
	view, err := f.cart.AddItem(f.ctx, cartapp.AddItemCommand{OwnerID: owner, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.cart.RemoveItem(f.ctx, cartapp.RemoveItemCommand{OwnerID: owner, LineID: view.Lines[0].ID})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	assert.ErrorIs(t, err, app.ErrEmptyCart)
	assert.ErrorIs(t, err, apperr.ErrFailedPrecondition)
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()
	p := f.product("Hand trowel", 10, 5)
	f.add(owner, p, 1)

	_, err := svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "   "})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: "not-a-uuid", ShippingAddress: "addr"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	assert.Equal(t, int32(5), f.stock(p))
	assert.Empty(t, f.orders(owner))
}

func TestPlaceOrder_CancelledContextAborts(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()
	p := f.product("Hand trowel", 10, 5)
	f.add(owner, p, 1)

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	_, err := svc.PlaceOrder(ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	require.ErrorIs(t, err, apperr.ErrAborted)
	assert.Equal(t, int32(5), f.stock(p))
	assert.Empty(t, f.orders(owner))
}

func TestPlaceOrder_CheckoutInProgress(t *testing.T) {
	f := newFixture(t)
	owner := uuid.NewString()
	p := f.product("Hand trowel", 10, 5)
	f.add(owner, p, 1)

	locker := app.NewLocalLocker()
	release, err := locker.Acquire(f.ctx, owner)
	require.NoError(t, err)

	svc := app.NewService(app.Deps{
		Cart:       adapter.NewCartServiceReader(f.cart),
		Catalog:    adapter.NewCatalogServiceReader(f.catalog),
		UnitOfWork: f.store,
		Locker:     locker,
	})

	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	assert.ErrorIs(t, err, app.ErrCheckoutInProgress)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, release(f.ctx))
	_, err = svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	assert.NoError(t, err)
}

func TestPlaceOrder_PublishFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	svc := f.service(nil)
	owner := uuid.NewString()
	p := f.product("Hand trowel", 10, 5)
	f.add(owner, p, 1)

	order, err := svc.PlaceOrder(f.ctx, app.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	require.NoError(t, err)

	stored := f.orders(owner)
	require.Len(t, stored, 1)
	assert.Equal(t, order.ID, stored[0].ID)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	owner := uuid.NewString()
	p1 := f.product("Hand trowel", 10, 5)
	p2 := f.product("Seed packet", 5, 2)
	f.add(owner, p1, 2)
	f.add(owner, p2, 2)

	q, err := svc.Quote(f.ctx, owner)
	require.NoError(t, err)
	require.Len(t, q.Lines, 2)
	assert.Equal(t, int64(30), q.Total)
	assert.True(t, q.Orderable)

	_, err = f.catalog.AdjustStock(f.ctx, p2.ID, -1)
	require.NoError(t, err)

	q, err = svc.Quote(f.ctx, owner)
	require.NoError(t, err)
	assert.False(t, q.Orderable)
	assert.False(t, q.Lines[1].InStock)
	assert.Equal(t, int32(1), q.Lines[1].Available)

	_, err = svc.Quote(f.ctx, uuid.NewString())
	assert.ErrorIs(t, err, app.ErrEmptyCart)
}

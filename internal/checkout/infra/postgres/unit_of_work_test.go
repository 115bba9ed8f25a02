package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	cartpg "github.com/dwikikusuma/shoping-checkout/internal/cart/infra/postgres"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	catalogpg "github.com/dwikikusuma/shoping-checkout/internal/catalog/infra/postgres"
	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	checkoutpg "github.com/dwikikusuma/shoping-checkout/internal/checkout/infra/postgres"
	orderdomain "github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	orderpg "github.com/dwikikusuma/shoping-checkout/internal/order/infra/postgres"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type UnitOfWorkSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	pool      *pgxpool.Pool
}

func TestUnitOfWorkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(UnitOfWorkSuite))
}

func (s *UnitOfWorkSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shop",
				"POSTGRES_PASSWORD": "shop",
				"POSTGRES_DB":       "shop",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		s.T().Skipf("docker not available: %v", err)
	}
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "5432")
	s.Require().NoError(err)

	s.pool, err = postgres.Open(s.ctx, postgres.Config{
		Host: host,
		Port: port.Int(),
		User: "shop",
		Pass: "shop",
		DB:   "shop",
	})
	s.Require().NoError(err)
	s.Require().NoError(postgres.Migrate(s.ctx, s.pool))
}

func (s *UnitOfWorkSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *UnitOfWorkSuite) seedProduct(name string, price int64, stock int32) catalogdomain.Product {
	p, err := catalogpg.NewProductRepo(s.pool).Create(s.ctx, catalogdomain.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: catalogdomain.CategorySeed,
	})
	s.Require().NoError(err)
	return p
}

func (s *UnitOfWorkSuite) seedCart(owner string, lines ...catalogdomain.Product) cartdomain.Cart {
	now := time.Now().UTC()
	c := cartdomain.New(owner, now)
	for _, p := range lines {
		_, err := c.AddLine(p.ID, 1, p.Price, now)
		s.Require().NoError(err)
	}
	saved, err := cartpg.NewCartRepo(s.pool).Save(s.ctx, c)
	s.Require().NoError(err)
	return saved
}

func (s *UnitOfWorkSuite) stock(id string) int32 {
	p, err := catalogpg.NewProductRepo(s.pool).Get(s.ctx, id)
	s.Require().NoError(err)
	return p.Stock
}

func (s *UnitOfWorkSuite) TestCartSaveRoundTripAndVersioning() {
	repo := cartpg.NewCartRepo(s.pool)
	owner := uuid.NewString()
	p := s.seedProduct("Tomato seeds", 250, 10)

	saved := s.seedCart(owner, p)
	s.Equal(int64(1), saved.Version)

	got, err := repo.GetByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(got.Lines, 1)
	s.Equal(int64(250), got.Total)
	s.Equal(saved.Lines[0].ID, got.Lines[0].ID)

	_, err = got.SetQuantity(got.Lines[0].ID, 3, time.Now().UTC())
	s.Require().NoError(err)
	next, err := repo.Save(s.ctx, got)
	s.Require().NoError(err)
	s.Equal(int64(2), next.Version)

	_, err = repo.Save(s.ctx, saved)
	s.ErrorIs(err, cartdomain.ErrCartConflict)

	_, err = repo.Save(s.ctx, cartdomain.New(owner, time.Now().UTC()))
	s.ErrorIs(err, cartdomain.ErrCartConflict)
}

func (s *UnitOfWorkSuite) TestConditionalDecrement() {
	repo := catalogpg.NewProductRepo(s.pool)
	p := s.seedProduct("Chili seeds", 100, 2)

	s.Require().NoError(repo.ConditionalDecrement(s.ctx, p.ID, 2))
	err := repo.ConditionalDecrement(s.ctx, p.ID, 1)
	s.ErrorIs(err, apperr.ErrInsufficientStock)
	s.ErrorIs(repo.ConditionalDecrement(s.ctx, uuid.NewString(), 1), catalogdomain.ErrProductNotFound)
	s.Equal(int32(0), s.stock(p.ID))
}

func (s *UnitOfWorkSuite) TestAdjustStockStaysInRange() {
	repo := catalogpg.NewProductRepo(s.pool)
	p := s.seedProduct("Pea seeds", 100, catalogdomain.MaxStock-1)

	_, err := repo.AdjustStock(s.ctx, p.ID, 10)
	s.ErrorIs(err, catalogdomain.ErrStockOverflow)
	s.ErrorIs(err, apperr.ErrInvalidArgument)
	s.Equal(int32(catalogdomain.MaxStock-1), s.stock(p.ID))

	_, err = repo.AdjustStock(s.ctx, p.ID, -catalogdomain.MaxStock)
	s.ErrorIs(err, apperr.ErrInsufficientStock)

	got, err := repo.AdjustStock(s.ctx, p.ID, 1)
	s.Require().NoError(err)
	s.Equal(int32(catalogdomain.MaxStock), got.Stock)
}

func (s *UnitOfWorkSuite) TestProductUpdateAndDelete() {
	repo := catalogpg.NewProductRepo(s.pool)
	p := s.seedProduct("Kale seeds", 100, 7)

	p.Name = "Curly kale seeds"
	p.Price = 180
	p.Stock = 0
	updated, err := repo.Update(s.ctx, p)
	s.Require().NoError(err)
	s.Equal("Curly kale seeds", updated.Name)
	s.Equal(int64(180), updated.Price)
	s.Equal(int32(7), updated.Stock, "update must not touch stock")

	s.Require().NoError(repo.Delete(s.ctx, p.ID))
	s.ErrorIs(repo.Delete(s.ctx, p.ID), catalogdomain.ErrProductNotFound)
	_, err = repo.Update(s.ctx, p)
	s.ErrorIs(err, catalogdomain.ErrProductNotFound)
}

func (s *UnitOfWorkSuite) TestPlaceOrderCommitsEverything() {
	owner := uuid.NewString()
	p1 := s.seedProduct("Basil seeds", 10, 5)
	p2 := s.seedProduct("Mint seeds", 5, 5)
	s.seedCart(owner, p1, p2)

	svc := checkoutapp.NewService(checkoutapp.Deps{UnitOfWork: checkoutpg.NewUnitOfWork(s.pool)})
	order, err := svc.PlaceOrder(s.ctx, checkoutapp.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "Jl. Braga 5"})
	s.Require().NoError(err)
	s.Equal(int64(15), order.Total)

	s.Equal(int32(4), s.stock(p1.ID))
	s.Equal(int32(4), s.stock(p2.ID))

	_, err = cartpg.NewCartRepo(s.pool).GetByOwner(s.ctx, owner)
	s.ErrorIs(err, cartdomain.ErrCartNotFound)

	stored, err := orderpg.NewOrderRepo(s.pool).Get(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(orderdomain.StatusPending, stored.Status)
	s.Equal([]orderdomain.Line{
		{ProductID: p1.ID, Quantity: 1, Price: 10},
		{ProductID: p2.ID, Quantity: 1, Price: 5},
	}, stored.Lines)
}

type failingUoW struct {
	inner checkoutapp.UnitOfWork
}

type failingTx struct {
	checkoutapp.Tx
}

type failingOrders struct{}

func (failingOrders) Create(context.Context, orderdomain.Order) error {
	return errors.New("injected failure")
}

func (t failingTx) Orders() checkoutapp.OrderStore { return failingOrders{} }

func (u failingUoW) Do(ctx context.Context, fn func(context.Context, checkoutapp.Tx) error) error {
	return u.inner.Do(ctx, func(ctx context.Context, tx checkoutapp.Tx) error {
		return fn(ctx, failingTx{Tx: tx})
	})
}

func (s *UnitOfWorkSuite) TestPlaceOrderRollsBackOnFailure() {
	owner := uuid.NewString()
	p := s.seedProduct("Kale seeds", 10, 5)
	s.seedCart(owner, p)

	svc := checkoutapp.NewService(checkoutapp.Deps{UnitOfWork: failingUoW{inner: checkoutpg.NewUnitOfWork(s.pool)}})
	_, err := svc.PlaceOrder(s.ctx, checkoutapp.PlaceOrderCommand{OwnerID: owner, ShippingAddress: "addr"})
	s.Require().ErrorIs(err, apperr.ErrAborted)

	s.Equal(int32(5), s.stock(p.ID))
	_, err = cartpg.NewCartRepo(s.pool).GetByOwner(s.ctx, owner)
	s.NoError(err)
	orders, err := orderpg.NewOrderRepo(s.pool).ListByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *UnitOfWorkSuite) TestConcurrentLastUnit() {
	p := s.seedProduct("Rare orchid seeds", 90, 1)
	owners := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for _, o := range owners {
		s.seedCart(o, p)
	}

	svc := checkoutapp.NewService(checkoutapp.Deps{UnitOfWork: checkoutpg.NewUnitOfWork(s.pool)})
	results := make(chan error, len(owners))
	for _, o := range owners {
		go func() {
			_, err := svc.PlaceOrder(s.ctx, checkoutapp.PlaceOrderCommand{OwnerID: o, ShippingAddress: "addr"})
			results <- err
		}()
	}

	var ok int
	for range owners {
		err := <-results
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, apperr.ErrInsufficientStock, fmt.Sprintf("unexpected error: %v", err))
	}
	s.Equal(1, ok)
	s.Equal(int32(0), s.stock(p.ID))
}

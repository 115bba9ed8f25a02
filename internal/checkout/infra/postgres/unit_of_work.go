package postgres

import (
	"context"

	cartpg "github.com/dwikikusuma/shoping-checkout/internal/cart/infra/postgres"
	catalogpg "github.com/dwikikusuma/shoping-checkout/internal/catalog/infra/postgres"
	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	orderpg "github.com/dwikikusuma/shoping-checkout/internal/order/infra/postgres"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork runs the materializer inside one database transaction with
// every repository bound to it.
type UnitOfWork struct {
	db postgres.DBTX
}

func NewUnitOfWork(db postgres.DBTX) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx checkoutapp.Tx) error) error {
	return postgres.ExecTx(ctx, u.db, func(ptx pgx.Tx) error {
		return fn(ctx, &tx{
			carts:    cartpg.NewCartRepo(ptx),
			products: catalogpg.NewProductRepo(ptx),
			orders:   orderpg.NewOrderRepo(ptx),
		})
	})
}

type tx struct {
	carts    *cartpg.CartRepo
	products *catalogpg.ProductRepo
	orders   *orderpg.OrderRepo
}

func (t *tx) Carts() checkoutapp.CartStore       { return t.carts }
func (t *tx) Products() checkoutapp.ProductStore { return t.products }
func (t *tx) Orders() checkoutapp.OrderStore     { return t.orders }

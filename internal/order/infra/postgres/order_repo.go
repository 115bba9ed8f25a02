package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

type OrderRepo struct {
	db postgres.DBTX
}

func NewOrderRepo(db postgres.DBTX) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create writes the order and its lines together.
func (r *OrderRepo) Create(ctx context.Context, order domain.Order) error {
	return postgres.ExecTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, owner_id, total, status, shipping_address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			order.ID, order.OwnerID, order.Total, string(order.Status), order.ShippingAddress,
			order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i, item := range order.Lines {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_lines (order_id, position, product_id, quantity, price)
				VALUES ($1, $2, $3, $4, $5)`,
				order.ID, i, item.ProductID, item.Quantity, item.Price,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, err
	}
	o.Lines, err = r.lines(ctx, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	for i := range orders {
		if orders[i].Lines, err = r.lines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

const orderColumns = `id, owner_id, total, status, shipping_address, created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.OwnerID, &o.Total, &status, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.Status(status)
	return o, nil
}

func (r *OrderRepo) lines(ctx context.Context, orderID string) ([]domain.Line, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, quantity, price FROM order_lines
		WHERE order_id = $1 ORDER BY position`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Line, error) {
		var l domain.Line
		err := row.Scan(&l.ProductID, &l.Quantity, &l.Price)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan order lines: %w", err)
	}
	return lines, nil
}

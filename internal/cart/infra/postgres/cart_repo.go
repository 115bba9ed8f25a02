package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

type CartRepo struct {
	db postgres.DBTX
}

// NewCartRepo binds the repository to db, which may be the pool or an open
// transaction.
func NewCartRepo(db postgres.DBTX) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) GetByOwner(ctx context.Context, ownerID string) (domain.Cart, error) {
	var c domain.Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, total, version, created_at, updated_at
		FROM carts WHERE owner_id = $1`, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Total, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, quantity, price_snapshot
		FROM cart_lines WHERE cart_id = $1
		ORDER BY position`, c.ID,
	)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed to list cart lines: %w", err)
	}
	c.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Line, error) {
		var l domain.Line
		err := row.Scan(&l.ID, &l.ProductID, &l.Quantity, &l.PriceSnapshot)
		return l, err
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed to scan cart lines: %w", err)
	}

	return c, nil
}

func (r *CartRepo) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	saved := cart.Clone()
	saved.Recompute()

	err := postgres.ExecTx(ctx, r.db, func(tx pgx.Tx) error {
		if cart.Version == 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO carts (id, owner_id, total, version, created_at, updated_at)
				VALUES ($1, $2, $3, 1, $4, $5)`,
				saved.ID, saved.OwnerID, saved.Total, saved.CreatedAt, saved.UpdatedAt,
			)
			if postgres.IsUniqueViolation(err) {
				return domain.ErrCartConflict
			}
			if err != nil {
				return fmt.Errorf("failed to insert cart: %w", err)
			}
		} else {
			tag, err := tx.Exec(ctx, `
				UPDATE carts SET total = $3, version = version + 1, updated_at = $4
				WHERE id = $1 AND version = $2`,
				saved.ID, saved.Version, saved.Total, saved.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to update cart: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return domain.ErrCartConflict
			}
			if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, saved.ID); err != nil {
				return fmt.Errorf("failed to clear cart lines: %w", err)
			}
		}

		for i, l := range saved.Lines {
			_, err := tx.Exec(ctx, `
				INSERT INTO cart_lines (id, cart_id, position, product_id, quantity, price_snapshot)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				l.ID, saved.ID, i, l.ProductID, l.Quantity, l.PriceSnapshot,
			)
			if err != nil {
				return fmt.Errorf("failed to insert cart line %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	saved.Version++
	return saved, nil
}

func (r *CartRepo) Delete(ctx context.Context, cart domain.Cart) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM carts WHERE id = $1 AND version = $2`, cart.ID, cart.Version)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartConflict
	}
	return nil
}

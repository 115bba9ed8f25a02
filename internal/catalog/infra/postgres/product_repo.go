package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

type ProductRepo struct {
	db postgres.DBTX
}

// NewProductRepo binds the repository to db, which may be the pool or an
// open transaction.
func NewProductRepo(db postgres.DBTX) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `id, name, description, price, stock, category, image, created_at, updated_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	var category string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &category, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	p.Category = domain.Category(category)
	return p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock, category, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.Stock, string(p.Category), p.Image,
	)
	created, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int32) (domain.Product, error) {
	// bigint arithmetic keeps the guard itself from overflowing the column type
	row := r.db.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock::bigint + $2 BETWEEN 0 AND $3
		RETURNING `+productColumns,
		id, delta, int64(domain.MaxStock),
	)
	p, err := scanProduct(row)
	if !errors.Is(err, domain.ErrProductNotFound) {
		return p, err
	}

	// no row: the product is missing or the result would leave [0, MaxStock]
	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return domain.Product{}, getErr
	}
	if _, err := current.StockAfter(delta); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{}, apperr.New(apperr.ErrConflict, "stock changed concurrently, retry")
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, image = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, string(p.Category), p.Image,
	)
	updated, err := scanProduct(row)
	if errors.Is(err, domain.ErrProductNotFound) {
		return domain.Product{}, err
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to update product %s: %w", p.ID, err)
	}
	return updated, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ConditionalDecrement is a single compare-and-decrement statement; the
// row lock taken by UPDATE serializes concurrent decrements of one product.
func (r *ProductRepo) ConditionalDecrement(ctx context.Context, id string, amount int32) error {
	if amount <= 0 {
		return apperr.Invalid("decrement amount must be positive, got %d", amount)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`,
		id, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement stock of %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// zero rows: distinguish a missing product from a short one
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product %s: %w", id, err)
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return &domain.InsufficientStockError{ProductID: id, Requested: amount}
}

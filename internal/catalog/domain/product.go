package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
)

type Category string

const (
	CategoryTools       Category = "tools"
	CategoryFertilizer  Category = "fertilizer"
	CategorySeed        Category = "seed"
	CategoryIrrigation  Category = "irrigation"
	CategoryAccessories Category = "accessories"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTools, CategoryFertilizer, CategorySeed, CategoryIrrigation, CategoryAccessories:
		return true
	}
	return false
}

// Product is the catalog entry referenced by cart and order lines. Price is
// in minor currency units.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Stock       int32
	Category    Category
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const maxDescriptionLen = 500

func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperr.Invalid("product name is required")
	case p.Price < 0:
		return apperr.Invalid("price cannot be negative, got %d", p.Price)
	case p.Stock < 0:
		return apperr.Invalid("stock cannot be negative, got %d", p.Stock)
	case !p.Category.Valid():
		return apperr.Invalid("unknown category %q", p.Category)
	case len(p.Description) > maxDescriptionLen:
		return apperr.Invalid("description exceeds %d characters", maxDescriptionLen)
	}
	return nil
}

var (
	ErrProductNotFound = apperr.New(apperr.ErrNotFound, "product not found")
	ErrStockOverflow   = apperr.New(apperr.ErrInvalidArgument, "stock adjustment exceeds the maximum stock")
)

// MaxStock is the largest stock a product can hold.
const MaxStock = math.MaxInt32

// StockAfter returns the stock that results from applying delta, or an error
// when the result would leave the range [0, MaxStock].
func (p Product) StockAfter(delta int32) (int32, error) {
	next := int64(p.Stock) + int64(delta)
	switch {
	case next < 0:
		requested := -int64(delta)
		if requested > MaxStock {
			requested = MaxStock
		}
		return 0, &InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   int32(requested),
			Available:   p.Stock,
		}
	case next > MaxStock:
		return 0, ErrStockOverflow
	}
	return int32(next), nil
}

// InsufficientStockError reports a product whose stock cannot cover the
// requested quantity. ProductName may be empty when the failing store only
// knows the id; callers holding the product fill it in.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s", name)
}

func (e *InsufficientStockError) Unwrap() error { return apperr.ErrInsufficientStock }

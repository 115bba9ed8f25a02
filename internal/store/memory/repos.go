package memory

import (
	"context"
	"sort"
	"time"

	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	orderdomain "github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
)

type ProductRepo struct {
	run access
	now func() time.Time
}

func (r *ProductRepo) Create(ctx context.Context, p catalogdomain.Product) (catalogdomain.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalogdomain.Product{}, err
	}
	now := r.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	err := r.run(func(s *state) error {
		s.products[p.ID] = p
		return nil
	})
	return p, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (catalogdomain.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalogdomain.Product{}, err
	}
	var p catalogdomain.Product
	err := r.run(func(s *state) error {
		found, ok := s.products[id]
		if !ok {
			return catalogdomain.ErrProductNotFound
		}
		p = found
		return nil
	})
	return p, err
}

func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int32) (catalogdomain.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalogdomain.Product{}, err
	}
	var p catalogdomain.Product
	err := r.run(func(s *state) error {
		found, ok := s.products[id]
		if !ok {
			return catalogdomain.ErrProductNotFound
		}
		next, err := found.StockAfter(delta)
		if err != nil {
			return err
		}
		found.Stock = next
		found.UpdatedAt = r.now()
		s.products[id] = found
		p = found
		return nil
	})
	return p, err
}

// Update replaces the descriptive fields of a product. Stock is left alone so
// a concurrent AdjustStock or checkout decrement is never overwritten.
func (r *ProductRepo) Update(ctx context.Context, p catalogdomain.Product) (catalogdomain.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalogdomain.Product{}, err
	}
	var updated catalogdomain.Product
	err := r.run(func(s *state) error {
		found, ok := s.products[p.ID]
		if !ok {
			return catalogdomain.ErrProductNotFound
		}
		found.Name = p.Name
		found.Description = p.Description
		found.Price = p.Price
		found.Category = p.Category
		found.Image = p.Image
		found.UpdatedAt = r.now()
		s.products[p.ID] = found
		updated = found
		return nil
	})
	return updated, err
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.run(func(s *state) error {
		if _, ok := s.products[id]; !ok {
			return catalogdomain.ErrProductNotFound
		}
		delete(s.products, id)
		return nil
	})
}

// ConditionalDecrement checks and writes the stock under one lock.
func (r *ProductRepo) ConditionalDecrement(ctx context.Context, id string, amount int32) error {
	if amount <= 0 {
		return apperr.Invalid("decrement amount must be positive, got %d", amount)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.run(func(s *state) error {
		p, ok := s.products[id]
		if !ok {
			return catalogdomain.ErrProductNotFound
		}
		if p.Stock < amount {
			return &catalogdomain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   amount,
				Available:   p.Stock,
			}
		}
		p.Stock -= amount
		p.UpdatedAt = r.now()
		s.products[id] = p
		return nil
	})
}

type CartRepo struct {
	run access
	now func() time.Time
}

func (r *CartRepo) GetByOwner(ctx context.Context, ownerID string) (cartdomain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return cartdomain.Cart{}, err
	}
	var c cartdomain.Cart
	err := r.run(func(s *state) error {
		found, ok := s.carts[ownerID]
		if !ok {
			return cartdomain.ErrCartNotFound
		}
		c = found.Clone()
		return nil
	})
	return c, err
}

func (r *CartRepo) Save(ctx context.Context, cart cartdomain.Cart) (cartdomain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return cartdomain.Cart{}, err
	}
	var saved cartdomain.Cart
	err := r.run(func(s *state) error {
		current, exists := s.carts[cart.OwnerID]
		switch {
		case cart.Version == 0 && exists:
			return cartdomain.ErrCartConflict
		case cart.Version != 0 && (!exists || current.Version != cart.Version):
			return cartdomain.ErrCartConflict
		}

		saved = cart.Clone()
		saved.Recompute()
		saved.Version++
		s.carts[cart.OwnerID] = saved.Clone()
		return nil
	})
	return saved, err
}

func (r *CartRepo) Delete(ctx context.Context, cart cartdomain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.run(func(s *state) error {
		current, ok := s.carts[cart.OwnerID]
		if !ok || current.Version != cart.Version {
			return cartdomain.ErrCartConflict
		}
		delete(s.carts, cart.OwnerID)
		return nil
	})
}

type OrderRepo struct {
	run access
}

func (r *OrderRepo) Create(ctx context.Context, o orderdomain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.run(func(s *state) error {
		if _, dup := s.orders[o.ID]; dup {
			return apperr.New(apperr.ErrConflict, "order already exists")
		}
		s.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r *OrderRepo) Get(ctx context.Context, id string) (orderdomain.Order, error) {
	if err := ctx.Err(); err != nil {
		return orderdomain.Order{}, err
	}
	var o orderdomain.Order
	err := r.run(func(s *state) error {
		found, ok := s.orders[id]
		if !ok {
			return orderdomain.ErrOrderNotFound
		}
		o = found.Clone()
		return nil
	})
	return o, err
}

func (r *OrderRepo) ListByOwner(ctx context.Context, ownerID string) ([]orderdomain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []orderdomain.Order{}
	err := r.run(func(s *state) error {
		for _, o := range s.orders {
			if o.OwnerID == ownerID {
				out = append(out, o.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

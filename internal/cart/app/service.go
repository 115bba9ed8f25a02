package app

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/logger"
	"github.com/dwikikusuma/shoping-checkout/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	maxSaveAttempts = 3
	lookupLimit     = 8
	lockStripes     = 64
)

var tracer = otel.Tracer("github.com/dwikikusuma/shoping-checkout/internal/cart")

type Service struct {
	repo     CartRepo
	products ProductLookup
	log      *slog.Logger
	now      func() time.Time
	locks    [lockStripes]sync.Mutex
}

func NewService(repo CartRepo, products ProductLookup, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:     repo,
		products: products,
		log:      log.With("component", "cart"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// lock serializes mutations of one owner's cart inside this process.
func (s *Service) lock(ownerID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *Service) GetCart(ctx context.Context, ownerID string) (domain.CartView, error) {
	if err := apperr.ValidateID("owner_id", ownerID); err != nil {
		return domain.CartView{}, err
	}
	cart, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(ctx, cart)
}

// Snapshot returns the stored cart without resolving products.
func (s *Service) Snapshot(ctx context.Context, ownerID string) (domain.Cart, error) {
	if err := apperr.ValidateID("owner_id", ownerID); err != nil {
		return domain.Cart{}, err
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *Service) AddItem(ctx context.Context, cmd AddItemCommand) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.AddItem")
	defer func() { observability.EndSpan(span, err) }()

	if err := cmd.Validate(); err != nil {
		return domain.CartView{}, err
	}
	span.SetAttributes(attribute.String("product.id", cmd.ProductID))

	product, err := s.products.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return domain.CartView{}, err
	}
	if cmd.Quantity > product.Stock {
		return domain.CartView{}, &catalogdomain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   cmd.Quantity,
			Available:   product.Stock,
		}
	}

	cart, err := s.mutate(ctx, cmd.OwnerID, true, func(c *domain.Cart) error {
		_, err := c.AddLine(product.ID, cmd.Quantity, product.Price, s.now())
		return err
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(ctx, cart)
}

func (s *Service) UpdateItem(ctx context.Context, cmd UpdateItemCommand) (view domain.CartView, err error) {
	ctx, span := tracer.Start(ctx, "cart.UpdateItem")
	defer func() { observability.EndSpan(span, err) }()

	if err := cmd.Validate(); err != nil {
		return domain.CartView{}, err
	}

	cart, err := s.mutate(ctx, cmd.OwnerID, false, func(c *domain.Cart) error {
		line, ok := c.Line(cmd.LineID)
		if !ok {
			return domain.ErrLineNotFound
		}
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if cmd.Quantity > product.Stock {
			return &catalogdomain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   cmd.Quantity,
				Available:   product.Stock,
			}
		}
		_, err = c.SetQuantity(cmd.LineID, cmd.Quantity, s.now())
		return err
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(ctx, cart)
}

func (s *Service) RemoveItem(ctx context.Context, cmd RemoveItemCommand) (res domain.RemoveResult, err error) {
	ctx, span := tracer.Start(ctx, "cart.RemoveItem")
	defer func() { observability.EndSpan(span, err) }()

	if err := cmd.Validate(); err != nil {
		return domain.RemoveResult{}, err
	}

	cart, err := s.mutate(ctx, cmd.OwnerID, false, func(c *domain.Cart) error {
		_, err := c.RemoveLine(cmd.LineID, s.now())
		return err
	})
	if err != nil {
		return domain.RemoveResult{}, err
	}

	return domain.RemoveResult{
		CartID:         cart.ID,
		RemovedLineID:  cmd.LineID,
		RemainingLines: len(cart.Lines),
		NewTotal:       cart.Total,
	}, nil
}

// mutate loads the owner's cart, applies fn and saves the result, re-reading
// and re-applying fn when another writer saved first. With create set, a
// missing cart starts out empty; it is only persisted if fn succeeds.
func (s *Service) mutate(ctx context.Context, ownerID string, create bool, fn func(*domain.Cart) error) (domain.Cart, error) {
	unlock := s.lock(ownerID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		cart, err := s.repo.GetByOwner(ctx, ownerID)
		switch {
		case errors.Is(err, domain.ErrCartNotFound) && create:
			cart = domain.New(ownerID, s.now())
		case err != nil:
			return domain.Cart{}, err
		}

		if err := fn(&cart); err != nil {
			return domain.Cart{}, err
		}

		saved, err := s.repo.Save(ctx, cart)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrCartConflict) || attempt >= maxSaveAttempts {
			return domain.Cart{}, fmt.Errorf("failed to save cart: %w", err)
		}
		s.log.WarnContext(ctx, "cart changed concurrently, retrying",
			"owner_id", ownerID,
			"attempt", attempt,
		)
	}
}

// view resolves the product summary of every line. A product that no longer
// exists leaves its summary empty instead of failing the read.
func (s *Service) view(ctx context.Context, cart domain.Cart) (domain.CartView, error) {
	lines := make([]domain.LineView, len(cart.Lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	for i, l := range cart.Lines {
		lines[i].Line = l
		g.Go(func() error {
			p, err := s.products.GetProduct(gctx, l.ProductID)
			if errors.Is(err, catalogdomain.ErrProductNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to resolve product %s: %w", l.ProductID, err)
			}
			lines[i].Product = domain.ProductSummary{
				ID:    p.ID,
				Name:  p.Name,
				Price: p.Price,
				Image: p.Image,
				Stock: p.Stock,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.CartView{}, err
	}

	return domain.CartView{
		ID:        cart.ID,
		OwnerID:   cart.OwnerID,
		Lines:     lines,
		Total:     cart.Total,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}, nil
}

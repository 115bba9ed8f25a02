package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cartdomain "github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/domain"
	orderdomain "github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/logger"
	"github.com/dwikikusuma/shoping-checkout/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyCart = apperr.New(apperr.ErrFailedPrecondition, "cart is empty")

var tracer = otel.Tracer("github.com/dwikikusuma/shoping-checkout/internal/checkout")

type Deps struct {
	Cart       CartReader
	Catalog    CatalogReader
	UnitOfWork UnitOfWork
	// Locker defaults to a LocalLocker.
	Locker Locker
	// Events may be nil, in which case nothing is published.
	Events EventPublisher
	Logger *slog.Logger

	MaxConcurrent int
	// Timeout bounds one PlaceOrder call including the lock wait. Zero
	// leaves the caller's deadline alone.
	Timeout time.Duration
}

type Service struct {
	Cart    CartReader
	Catalog CatalogReader

	uow     UnitOfWork
	locker  Locker
	events  EventPublisher
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	maxConcurrent int
}

func NewService(d Deps) *Service {
	if d.MaxConcurrent <= 0 {
		d.MaxConcurrent = 10
	}
	if d.Locker == nil {
		d.Locker = NewLocalLocker()
	}
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}

	return &Service{
		Cart:          d.Cart,
		Catalog:       d.Catalog,
		uow:           d.UnitOfWork,
		locker:        d.Locker,
		events:        d.Events,
		log:           d.Logger.With("component", "checkout"),
		timeout:       d.Timeout,
		now:           func() time.Time { return time.Now().UTC() },
		maxConcurrent: d.MaxConcurrent,
	}
}

func (s *Service) Quote(ctx context.Context, ownerID string) (domain.Quote, error) {
	if err := apperr.ValidateID("owner_id", ownerID); err != nil {
		return domain.Quote{}, err
	}

	items, err := s.Cart.GetCart(ctx, ownerID)
	if err != nil {
		return domain.Quote{}, err
	}

	if len(items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		g.Go(func() error {
			it := items[idx]
			product, err := s.Catalog.GetProduct(ctx, it.ProductID)
			if errors.Is(err, catalogdomain.ErrProductNotFound) {
				lines[idx] = domain.QuoteLine{
					LineID:        it.LineID,
					ProductID:     it.ProductID,
					Quantity:      it.Quantity,
					PriceSnapshot: it.PriceSnapshot,
					LineTotal:     int64(it.Quantity) * it.PriceSnapshot,
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get product %s: %w", it.ProductID, err)
			}

			lines[idx] = domain.QuoteLine{
				LineID:        it.LineID,
				ProductID:     product.ID,
				Name:          product.Name,
				Quantity:      it.Quantity,
				PriceSnapshot: it.PriceSnapshot,
				CurrentPrice:  product.Price,
				Available:     product.Stock,
				InStock:       product.Stock >= it.Quantity,
				LineTotal:     int64(it.Quantity) * it.PriceSnapshot,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	quote := domain.Quote{Lines: lines, Orderable: true}
	for _, line := range lines {
		quote.Total += line.LineTotal
		quote.Orderable = quote.Orderable && line.InStock
	}

	return quote, nil
}

// PlaceOrder turns the owner's cart into a pending order. Stock is
// re-validated and decremented, the order written and the cart deleted in
// one unit of work; on any failure none of it persists.
func (s *Service) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (order orderdomain.Order, err error) {
	ctx, span := tracer.Start(ctx, "checkout.PlaceOrder")
	defer func() { observability.EndSpan(span, err) }()

	if err := cmd.Validate(); err != nil {
		return orderdomain.Order{}, err
	}
	span.SetAttributes(attribute.String("owner.id", cmd.OwnerID))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	release, err := s.locker.Acquire(ctx, cmd.OwnerID)
	if err != nil {
		if errors.Is(err, ErrCheckoutInProgress) {
			return orderdomain.Order{}, err
		}
		return orderdomain.Order{}, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.WarnContext(ctx, "failed to release checkout lock", "owner_id", cmd.OwnerID, "err", err)
		}
	}()

	address := strings.TrimSpace(cmd.ShippingAddress)
	err = s.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		o, err := s.materialize(ctx, tx, cmd.OwnerID, address)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.log.ErrorContext(ctx, "checkout aborted", "owner_id", cmd.OwnerID, "err", err)
			err = apperr.Aborted(err)
		}
		return orderdomain.Order{}, err
	}

	s.log.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"owner_id", order.OwnerID,
		"lines", len(order.Lines),
		"total", order.Total,
	)
	s.publish(ctx, order)

	return order, nil
}

func (s *Service) materialize(ctx context.Context, tx Tx, ownerID, address string) (orderdomain.Order, error) {
	cart, err := tx.Carts().GetByOwner(ctx, ownerID)
	if errors.Is(err, cartdomain.ErrCartNotFound) {
		return orderdomain.Order{}, ErrEmptyCart
	}
	if err != nil {
		return orderdomain.Order{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return orderdomain.Order{}, ErrEmptyCart
	}

	names := make(map[string]string, len(cart.Lines))
	for _, l := range cart.Lines {
		p, err := tx.Products().Get(ctx, l.ProductID)
		if err != nil {
			return orderdomain.Order{}, fmt.Errorf("failed to load product %s: %w", l.ProductID, err)
		}
		if p.Stock < l.Quantity {
			return orderdomain.Order{}, &catalogdomain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.Stock,
			}
		}
		names[p.ID] = p.Name
	}

	// stock may have moved since the reads above; the decrement is the check
	// that counts
	for _, l := range cart.Lines {
		if err := tx.Products().ConditionalDecrement(ctx, l.ProductID, l.Quantity); err != nil {
			var stockErr *catalogdomain.InsufficientStockError
			if errors.As(err, &stockErr) && stockErr.ProductName == "" {
				stockErr.ProductName = names[l.ProductID]
			}
			return orderdomain.Order{}, err
		}
	}

	lines := make([]orderdomain.Line, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, orderdomain.Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.PriceSnapshot,
		})
	}
	order, err := orderdomain.NewPending(ownerID, address, lines, cart.Total, s.now())
	if err != nil {
		return orderdomain.Order{}, err
	}

	if err := tx.Orders().Create(ctx, order); err != nil {
		return orderdomain.Order{}, fmt.Errorf("failed to persist order: %w", err)
	}
	if err := tx.Carts().Delete(ctx, cart); err != nil {
		return orderdomain.Order{}, fmt.Errorf("failed to delete cart: %w", err)
	}

	return order, nil
}

// publish runs after commit. A failed publish is logged only; the order
// stands.
func (s *Service) publish(ctx context.Context, order orderdomain.Order) {
	if s.events == nil {
		return
	}

	evt := domain.OrderPlaced{
		OrderID:         order.ID,
		OwnerID:         order.OwnerID,
		Lines:           make([]domain.OrderPlacedLine, 0, len(order.Lines)),
		Total:           order.Total,
		ShippingAddress: order.ShippingAddress,
		PlacedAt:        order.CreatedAt,
	}
	for _, l := range order.Lines {
		evt.Lines = append(evt.Lines, domain.OrderPlacedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	if err := s.events.PublishOrderPlaced(context.WithoutCancel(ctx), evt); err != nil {
		s.log.ErrorContext(ctx, "failed to publish order placed event", "order_id", order.ID, "err", err)
	}
}

// isBusinessError reports errors the caller can act on. Everything else
// inside the unit of work is an aborted transaction.
func isBusinessError(err error) bool {
	return errors.Is(err, apperr.ErrInvalidArgument) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrInsufficientStock) ||
		errors.Is(err, apperr.ErrFailedPrecondition)
}

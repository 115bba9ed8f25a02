// Package server assembles the bounded contexts into one gRPC server.
package server

import (
	"context"
	"log/slog"
	"maps"
	"time"

	cartv1 "github.com/dwikikusuma/shoping-checkout/api/cartv1"
	catalogv1 "github.com/dwikikusuma/shoping-checkout/api/catalogv1"
	checkoutv1 "github.com/dwikikusuma/shoping-checkout/api/checkoutv1"
	orderv1 "github.com/dwikikusuma/shoping-checkout/api/orderv1"
	cartapp "github.com/dwikikusuma/shoping-checkout/internal/cart/app"
	cartgrpc "github.com/dwikikusuma/shoping-checkout/internal/cart/grpc"
	cartpg "github.com/dwikikusuma/shoping-checkout/internal/cart/infra/postgres"
	catalogapp "github.com/dwikikusuma/shoping-checkout/internal/catalog/app"
	catalogrpc "github.com/dwikikusuma/shoping-checkout/internal/catalog/grpc"
	catalogpg "github.com/dwikikusuma/shoping-checkout/internal/catalog/infra/postgres"
	checkoutapp "github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	checkoutgrpc "github.com/dwikikusuma/shoping-checkout/internal/checkout/grpc"
	checkoutadapter "github.com/dwikikusuma/shoping-checkout/internal/checkout/infra/adapter"
	checkoutpg "github.com/dwikikusuma/shoping-checkout/internal/checkout/infra/postgres"
	orderapp "github.com/dwikikusuma/shoping-checkout/internal/order/app"
	ordergrpc "github.com/dwikikusuma/shoping-checkout/internal/order/grpc"
	orderpg "github.com/dwikikusuma/shoping-checkout/internal/order/infra/postgres"
	"github.com/dwikikusuma/shoping-checkout/internal/store/memory"
	"github.com/dwikikusuma/shoping-checkout/pkg/identity"
	"github.com/dwikikusuma/shoping-checkout/pkg/logger"
	"github.com/dwikikusuma/shoping-checkout/pkg/postgres"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Backend is the storage every service runs on.
type Backend struct {
	Products   catalogapp.ProductRepo
	Carts      cartapp.CartRepo
	Orders     orderapp.OrderRepo
	UnitOfWork checkoutapp.UnitOfWork
}

func MemoryBackend(store *memory.Store) Backend {
	return Backend{
		Products:   store.ProductRepo(),
		Carts:      store.CartRepo(),
		Orders:     store.OrderRepo(),
		UnitOfWork: store,
	}
}

func PostgresBackend(db postgres.DBTX) Backend {
	return Backend{
		Products:   catalogpg.NewProductRepo(db),
		Carts:      cartpg.NewCartRepo(db),
		Orders:     orderpg.NewOrderRepo(db),
		UnitOfWork: checkoutpg.NewUnitOfWork(db),
	}
}

type Options struct {
	Locker          checkoutapp.Locker
	Events          checkoutapp.EventPublisher
	Logger          *slog.Logger
	CheckoutTimeout time.Duration
}

type Services struct {
	Catalog  *catalogapp.Service
	Cart     *cartapp.Service
	Checkout *checkoutapp.Service
	Order    *orderapp.Service
}

func NewServices(b Backend, opts Options) Services {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	catalogSvc := catalogapp.NewService(b.Products)
	cartSvc := cartapp.NewService(b.Carts, catalogSvc, opts.Logger)

	checkoutSvc := checkoutapp.NewService(checkoutapp.Deps{
		Cart:       checkoutadapter.NewCartServiceReader(cartSvc),
		Catalog:    checkoutadapter.NewCatalogServiceReader(catalogSvc),
		UnitOfWork: b.UnitOfWork,
		Locker:     opts.Locker,
		Events:     opts.Events,
		Logger:     opts.Logger,
		Timeout:    opts.CheckoutTimeout,
	})

	return Services{
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Order:    orderapp.NewService(b.Orders),
	}
}

// Policy merges the role requirements of every service.
func Policy() identity.Policy {
	p := identity.Policy{}
	for _, part := range []identity.Policy{catalogrpc.Policy, cartgrpc.Policy, checkoutgrpc.Policy, ordergrpc.Policy} {
		maps.Copy(p, part)
	}
	return p
}

// NewGRPCServer registers all services behind the identity interceptor.
func NewGRPCServer(svcs Services, log *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if log == nil {
		log = logger.Discard()
	}

	opts = append(opts, grpc.ChainUnaryInterceptor(
		loggingInterceptor(log),
		identity.UnaryServerInterceptor(Policy()),
	))
	s := grpc.NewServer(opts...)

	catalogv1.RegisterCatalogServiceServer(s, catalogrpc.NewServer(svcs.Catalog))
	cartv1.RegisterCartServiceServer(s, cartgrpc.NewServer(svcs.Cart))
	checkoutv1.RegisterCheckoutServiceServer(s, checkoutgrpc.NewServer(svcs.Checkout))
	orderv1.RegisterOrderServiceServer(s, ordergrpc.NewServer(svcs.Order))

	return s
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("took", time.Since(start)),
		}
		if err != nil {
			log.WarnContext(ctx, "rpc failed", append(attrs, slog.Any("err", err))...)
		} else {
			log.DebugContext(ctx, "rpc", attrs...)
		}
		return resp, err
	}
}

package grpc

import (
	"context"

	checkoutv1 "github.com/dwikikusuma/shoping-checkout/api/checkoutv1"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/app"
	"github.com/dwikikusuma/shoping-checkout/internal/checkout/domain"
	ordergrpc "github.com/dwikikusuma/shoping-checkout/internal/order/grpc"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/identity"
)

var Policy = identity.Policy{
	"/" + checkoutv1.ServiceName + "/": identity.RoleBuyer,
}

type Server struct {
	checkoutv1.UnimplementedCheckoutServiceServer
	svc *app.Service
}

func NewServer(svc *app.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) Quote(ctx context.Context, _ *checkoutv1.QuoteRequest) (*checkoutv1.QuoteResponse, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	q, err := s.svc.Quote(ctx, owner)
	if err != nil {
		return nil, apperr.Status(err)
	}
	return toProto(q), nil
}

func (s *Server) PlaceOrder(ctx context.Context, req *checkoutv1.PlaceOrderRequest) (*checkoutv1.PlaceOrderResponse, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	order, err := s.svc.PlaceOrder(ctx, app.PlaceOrderCommand{
		OwnerID:         owner,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return nil, apperr.Status(err)
	}
	return &checkoutv1.PlaceOrderResponse{Order: ordergrpc.ToProto(order)}, nil
}

func toProto(q domain.Quote) *checkoutv1.QuoteResponse {
	lines := make([]*checkoutv1.QuoteLine, 0, len(q.Lines))
	for _, ln := range q.Lines {
		lines = append(lines, &checkoutv1.QuoteLine{
			LineId:        ln.LineID,
			ProductId:     ln.ProductID,
			Name:          ln.Name,
			Quantity:      ln.Quantity,
			PriceSnapshot: ln.PriceSnapshot,
			CurrentPrice:  ln.CurrentPrice,
			Available:     ln.Available,
			InStock:       ln.InStock,
			LineTotal:     ln.LineTotal,
		})
	}

	return &checkoutv1.QuoteResponse{
		Lines:     lines,
		Total:     q.Total,
		Orderable: q.Orderable,
	}
}

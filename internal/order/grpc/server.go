package grpc

import (
	"context"

	orderv1 "github.com/dwikikusuma/shoping-checkout/api/orderv1"
	"github.com/dwikikusuma/shoping-checkout/internal/order/app"
	"github.com/dwikikusuma/shoping-checkout/internal/order/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/identity"
)

var Policy = identity.Policy{
	"/" + orderv1.ServiceName + "/": identity.RoleBuyer,
}

type Server struct {
	orderv1.UnimplementedOrderServiceServer
	svc *app.Service
}

func NewServer(svc *app.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) GetOrder(ctx context.Context, req *orderv1.GetOrderRequest) (*orderv1.Order, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	o, err := s.svc.GetOrder(ctx, owner, req.Id)
	if err != nil {
		return nil, apperr.Status(err)
	}
	return ToProto(o), nil
}

func (s *Server) ListOrders(ctx context.Context, _ *orderv1.ListOrdersRequest) (*orderv1.ListOrdersResponse, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	orders, err := s.svc.ListOrders(ctx, owner)
	if err != nil {
		return nil, apperr.Status(err)
	}

	out := make([]*orderv1.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToProto(o))
	}
	return &orderv1.ListOrdersResponse{Orders: out}, nil
}

// ToProto is shared with the checkout server, which returns the placed order.
func ToProto(o domain.Order) *orderv1.Order {
	items := make([]*orderv1.OrderItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, &orderv1.OrderItem{
			ProductId: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	return &orderv1.Order{
		Id:              o.ID,
		OwnerId:         o.OwnerID,
		Items:           items,
		Total:           o.Total,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		CreatedAtUnix:   o.CreatedAt.Unix(),
		UpdatedAtUnix:   o.UpdatedAt.Unix(),
	}
}

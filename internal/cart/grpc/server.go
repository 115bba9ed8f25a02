package grpc

import (
	"context"

	cartv1 "github.com/dwikikusuma/shoping-checkout/api/cartv1"
	"github.com/dwikikusuma/shoping-checkout/internal/cart/app"
	"github.com/dwikikusuma/shoping-checkout/internal/cart/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/identity"
)

// Policy restricts the whole cart service to buyers.
var Policy = identity.Policy{
	"/" + cartv1.ServiceName + "/": identity.RoleBuyer,
}

type Server struct {
	cartv1.UnimplementedCartServiceServer
	svc *app.Service
}

func NewServer(svc *app.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) GetCart(ctx context.Context, _ *cartv1.GetCartRequest) (*cartv1.Cart, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	view, err := s.svc.GetCart(ctx, owner)
	if err != nil {
		return nil, apperr.Status(err)
	}
	return toProto(view), nil
}

func (s *Server) AddItem(ctx context.Context, req *cartv1.AddItemRequest) (*cartv1.Cart, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	view, err := s.svc.AddItem(ctx, app.AddItemCommand{
		OwnerID:   owner,
		ProductID: req.ProductId,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return nil, apperr.Status(err)
	}
	return toProto(view), nil
}

func (s *Server) UpdateItem(ctx context.Context, req *cartv1.UpdateItemRequest) (*cartv1.Cart, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	view, err := s.svc.UpdateItem(ctx, app.UpdateItemCommand{
		OwnerID:  owner,
		LineID:   req.ItemId,
		Quantity: req.Quantity,
	})
	if err != nil {
		return nil, apperr.Status(err)
	}
	return toProto(view), nil
}

func (s *Server) RemoveItem(ctx context.Context, req *cartv1.RemoveItemRequest) (*cartv1.RemoveItemResponse, error) {
	owner, err := identity.UserID(ctx)
	if err != nil {
		return nil, apperr.Status(err)
	}

	res, err := s.svc.RemoveItem(ctx, app.RemoveItemCommand{OwnerID: owner, LineID: req.ItemId})
	if err != nil {
		return nil, apperr.Status(err)
	}
	return &cartv1.RemoveItemResponse{
		CartId:         res.CartID,
		RemovedItemId:  res.RemovedLineID,
		NewTotal:       res.NewTotal,
		RemainingItems: int32(res.RemainingLines),
	}, nil
}

func toProto(view domain.CartView) *cartv1.Cart {
	items := make([]*cartv1.CartItem, 0, len(view.Lines))
	for _, l := range view.Lines {
		item := &cartv1.CartItem{
			Id:            l.ID,
			ProductId:     l.ProductID,
			Quantity:      l.Quantity,
			PriceSnapshot: l.PriceSnapshot,
			Subtotal:      l.Subtotal(),
		}
		if l.Product.ID != "" {
			item.Product = &cartv1.ProductSummary{
				Id:    l.Product.ID,
				Name:  l.Product.Name,
				Price: l.Product.Price,
				Image: l.Product.Image,
				Stock: l.Product.Stock,
			}
		}
		items = append(items, item)
	}

	return &cartv1.Cart{
		Id:            view.ID,
		OwnerId:       view.OwnerID,
		Items:         items,
		Total:         view.Total,
		CreatedAtUnix: view.CreatedAt.Unix(),
		UpdatedAtUnix: view.UpdatedAt.Unix(),
	}
}

package grpc

import (
	"context"

	catalogv1 "github.com/dwikikusuma/shoping-checkout/api/catalogv1"
	"github.com/dwikikusuma/shoping-checkout/internal/catalog/app"
	"github.com/dwikikusuma/shoping-checkout/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/dwikikusuma/shoping-checkout/pkg/identity"
)

// Policy lists the roles the catalog methods require. GetProduct is public.
var Policy = identity.Policy{
	"/" + catalogv1.ServiceName + "/CreateProduct": identity.RoleAdmin,
	"/" + catalogv1.ServiceName + "/AdjustStock":   identity.RoleAdmin,
	"/" + catalogv1.ServiceName + "/UpdateProduct": identity.RoleAdmin,
	"/" + catalogv1.ServiceName + "/DeleteProduct": identity.RoleAdmin,
}

type Server struct {
	catalogv1.UnimplementedCatalogServiceServer
	svc *app.Service
}

func NewServer(svc *app.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) CreateProduct(ctx context.Context, req *catalogv1.CreateProductRequest) (*catalogv1.CreateProductResponse, error) {
	if req == nil {
		return nil, apperr.Status(apperr.Invalid("missing body"))
	}
	p, err := s.svc.CreateProduct(ctx, app.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		return nil, apperr.Status(err)
	}
	return &catalogv1.CreateProductResponse{Product: toProto(p)}, nil
}

func (s *Server) GetProduct(ctx context.Context, req *catalogv1.GetProductRequest) (*catalogv1.GetProductResponse, error) {
	p, err := s.svc.GetProduct(ctx, req.Id)
	if err != nil {
		return nil, apperr.Status(err)
	}
	return &catalogv1.GetProductResponse{Product: toProto(p)}, nil
}

func (s *Server) AdjustStock(ctx context.Context, req *catalogv1.AdjustStockRequest) (*catalogv1.AdjustStockResponse, error) {
	p, err := s.svc.AdjustStock(ctx, req.Id, req.Delta)
	if err != nil {
		return nil, apperr.Status(err)
	}
	return &catalogv1.AdjustStockResponse{Product: toProto(p)}, nil
}

func (s *Server) UpdateProduct(ctx context.Context, req *catalogv1.UpdateProductRequest) (*catalogv1.UpdateProductResponse, error) {
	if req == nil {
		return nil, apperr.Status(apperr.Invalid("missing body"))
	}
	p, err := s.svc.UpdateProduct(ctx, app.UpdateProductCommand{
		ID:          req.Id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		return nil, apperr.Status(err)
	}
	return &catalogv1.UpdateProductResponse{Product: toProto(p)}, nil
}

func (s *Server) DeleteProduct(ctx context.Context, req *catalogv1.DeleteProductRequest) (*catalogv1.DeleteProductResponse, error) {
	if err := s.svc.DeleteProduct(ctx, req.Id); err != nil {
		return nil, apperr.Status(err)
	}
	return &catalogv1.DeleteProductResponse{Id: req.Id}, nil
}

func toProto(p domain.Product) *catalogv1.Product {
	return &catalogv1.Product{
		Id:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		Category:      string(p.Category),
		Image:         p.Image,
		CreatedAtUnix: p.CreatedAt.Unix(),
		UpdatedAtUnix: p.UpdatedAt.Unix(),
	}
}

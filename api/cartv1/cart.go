package cartv1

import (
	"context"

	"github.com/dwikikusuma/shoping-checkout/api/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "cart.v1.CartService"

// ProductSummary is the catalog view shown next to a cart line.
type ProductSummary struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image"`
	Stock int32  `json:"stock"`
}

type CartItem struct {
	Id            string          `json:"id"`
	ProductId     string          `json:"product_id"`
	Product       *ProductSummary `json:"product,omitempty"`
	Quantity      int32           `json:"quantity"`
	PriceSnapshot int64           `json:"price_snapshot"`
	Subtotal      int64           `json:"subtotal"`
}

type Cart struct {
	Id            string      `json:"id"`
	OwnerId       string      `json:"owner_id"`
	Items         []*CartItem `json:"items"`
	Total         int64       `json:"total"`
	CreatedAtUnix int64       `json:"created_at_unix"`
	UpdatedAtUnix int64       `json:"updated_at_unix"`
}

// The owner of every cart call is the caller identity, never a request field.

type GetCartRequest struct{}

type AddItemRequest struct {
	ProductId string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type UpdateItemRequest struct {
	ItemId   string `json:"item_id"`
	Quantity int32  `json:"quantity"`
}

type RemoveItemRequest struct {
	ItemId string `json:"item_id"`
}

type RemoveItemResponse struct {
	CartId         string `json:"cart_id"`
	RemovedItemId  string `json:"removed_item_id"`
	NewTotal       int64  `json:"new_total"`
	RemainingItems int32  `json:"remaining_items"`
}

type CartServiceServer interface {
	GetCart(context.Context, *GetCartRequest) (*Cart, error)
	AddItem(context.Context, *AddItemRequest) (*Cart, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*Cart, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*RemoveItemResponse, error)
}

type UnimplementedCartServiceServer struct{}

func (UnimplementedCartServiceServer) GetCart(context.Context, *GetCartRequest) (*Cart, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCart not implemented")
}

func (UnimplementedCartServiceServer) AddItem(context.Context, *AddItemRequest) (*Cart, error) {
	return nil, status.Error(codes.Unimplemented, "method AddItem not implemented")
}

func (UnimplementedCartServiceServer) UpdateItem(context.Context, *UpdateItemRequest) (*Cart, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateItem not implemented")
}

func (UnimplementedCartServiceServer) RemoveItem(context.Context, *RemoveItemRequest) (*RemoveItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveItem not implemented")
}

var CartService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetCart", CartServiceServer.GetCart),
		rpc.Unary(ServiceName, "AddItem", CartServiceServer.AddItem),
		rpc.Unary(ServiceName, "UpdateItem", CartServiceServer.UpdateItem),
		rpc.Unary(ServiceName, "RemoveItem", CartServiceServer.RemoveItem),
	},
	Metadata: "cart/v1/cart.proto",
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartService_ServiceDesc, srv)
}

type CartServiceClient interface {
	GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*Cart, error)
	AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*Cart, error)
	UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*Cart, error)
	RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*RemoveItemResponse, error)
}

type cartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) CartServiceClient {
	return &cartServiceClient{cc: cc}
}

func (c *cartServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*Cart, error) {
	return rpc.Invoke[Cart](ctx, c.cc, "/"+ServiceName+"/GetCart", in, opts...)
}

func (c *cartServiceClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*Cart, error) {
	return rpc.Invoke[Cart](ctx, c.cc, "/"+ServiceName+"/AddItem", in, opts...)
}

func (c *cartServiceClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*Cart, error) {
	return rpc.Invoke[Cart](ctx, c.cc, "/"+ServiceName+"/UpdateItem", in, opts...)
}

func (c *cartServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*RemoveItemResponse, error) {
	return rpc.Invoke[RemoveItemResponse](ctx, c.cc, "/"+ServiceName+"/RemoveItem", in, opts...)
}

package checkoutv1

import (
	"context"

	"github.com/dwikikusuma/shoping-checkout/api/orderv1"
	"github.com/dwikikusuma/shoping-checkout/api/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "checkout.v1.CheckoutService"

type QuoteRequest struct{}

type QuoteLine struct {
	LineId        string `json:"line_id"`
	ProductId     string `json:"product_id"`
	Name          string `json:"name"`
	Quantity      int32  `json:"quantity"`
	PriceSnapshot int64  `json:"price_snapshot"`
	CurrentPrice  int64  `json:"current_price"`
	Available     int32  `json:"available"`
	InStock       bool   `json:"in_stock"`
	LineTotal     int64  `json:"line_total"`
}

type QuoteResponse struct {
	Lines     []*QuoteLine `json:"lines"`
	Total     int64        `json:"total"`
	Orderable bool         `json:"orderable"`
}

type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type PlaceOrderResponse struct {
	Order *orderv1.Order `json:"order"`
}

type CheckoutServiceServer interface {
	Quote(context.Context, *QuoteRequest) (*QuoteResponse, error)
	PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error)
}

type UnimplementedCheckoutServiceServer struct{}

func (UnimplementedCheckoutServiceServer) Quote(context.Context, *QuoteRequest) (*QuoteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Quote not implemented")
}

func (UnimplementedCheckoutServiceServer) PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PlaceOrder not implemented")
}

var CheckoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "Quote", CheckoutServiceServer.Quote),
		rpc.Unary(ServiceName, "PlaceOrder", CheckoutServiceServer.PlaceOrder),
	},
	Metadata: "checkout/v1/checkout.proto",
}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&CheckoutService_ServiceDesc, srv)
}

type CheckoutServiceClient interface {
	Quote(ctx context.Context, in *QuoteRequest, opts ...grpc.CallOption) (*QuoteResponse, error)
	PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error)
}

type checkoutServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutServiceClient(cc grpc.ClientConnInterface) CheckoutServiceClient {
	return &checkoutServiceClient{cc: cc}
}

func (c *checkoutServiceClient) Quote(ctx context.Context, in *QuoteRequest, opts ...grpc.CallOption) (*QuoteResponse, error) {
	return rpc.Invoke[QuoteResponse](ctx, c.cc, "/"+ServiceName+"/Quote", in, opts...)
}

func (c *checkoutServiceClient) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	return rpc.Invoke[PlaceOrderResponse](ctx, c.cc, "/"+ServiceName+"/PlaceOrder", in, opts...)
}

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cartv1 "github.com/dwikikusuma/shoping-checkout/api/cartv1"
	catalogv1 "github.com/dwikikusuma/shoping-checkout/api/catalogv1"
	checkoutv1 "github.com/dwikikusuma/shoping-checkout/api/checkoutv1"
	orderv1 "github.com/dwikikusuma/shoping-checkout/api/orderv1"
	"github.com/dwikikusuma/shoping-checkout/internal/server"
	"github.com/dwikikusuma/shoping-checkout/internal/store/memory"
	"github.com/dwikikusuma/shoping-checkout/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// newGateway runs the gateway against a real api over bufconn. The returned
// func must run before leak checks.
func newGateway(t *testing.T) (http.Handler, func()) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := server.NewGRPCServer(server.NewServices(server.MemoryBackend(memory.New()), server.Options{}), nil)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	stop := func() {
		conn.Close()
		srv.GracefulStop()
		lis.Close()
	}

	h := &Handler{
		catalog:  catalogv1.NewCatalogServiceClient(conn),
		cart:     cartv1.NewCartServiceClient(conn),
		checkout: checkoutv1.NewCheckoutServiceClient(conn),
		orders:   orderv1.NewOrderServiceClient(conn),
		log:      logger.Discard(),
	}
	return h.Routes(), stop
}

func do(t *testing.T, h http.Handler, method, path, userID, role, body string) (int, response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(headerUserID, userID)
		req.Header.Set(headerRole, role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}

func TestGateway_CheckoutFlow(t *testing.T) {
	defer goleak.VerifyNone(t)
	h, stop := newGateway(t)
	defer stop()
	admin, buyer := uuid.NewString(), uuid.NewString()

	code, resp := do(t, h, http.MethodPost, "/api/v1/admin/products", admin, "admin",
		`{"name":"Tomato seeds","price":12,"stock":3,"category":"seed"}`)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var product catalogv1.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))

	code, resp = do(t, h, http.MethodPost, "/api/v1/cart", buyer, "buyer",
		`{"product_id":"`+product.Id+`","quantity":2}`)
	require.Equal(t, http.StatusOK, code, resp.Message)
	var cart cartv1.Cart
	require.NoError(t, json.Unmarshal(resp.Data, &cart))
	assert.Equal(t, int64(24), cart.Total)

	code, resp = do(t, h, http.MethodPut, "/api/v1/cart/"+cart.Items[0].Id, buyer, "buyer", `{"quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "FAILED_PRECONDITION", resp.Code)

	code, resp = do(t, h, http.MethodPost, "/api/v1/orders", buyer, "buyer", `{"shipping_address":"Jl. Dago 1"}`)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var order orderv1.Order
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	assert.Equal(t, int64(24), order.Total)

	code, resp = do(t, h, http.MethodGet, "/api/v1/orders/"+order.Id, buyer, "buyer", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, _ = do(t, h, http.MethodGet, "/api/v1/cart", buyer, "buyer", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = do(t, h, http.MethodGet, "/api/v1/products/"+product.Id, "", "", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Equal(t, int32(1), product.Stock)
}

func TestGateway_ProductAdmin(t *testing.T) {
	defer goleak.VerifyNone(t)
	h, stop := newGateway(t)
	defer stop()
	admin := uuid.NewString()

	code, resp := do(t, h, http.MethodPost, "/api/v1/admin/products", admin, "admin",
		`{"name":"Hose","price":900,"stock":4,"category":"irrigation"}`)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var product catalogv1.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))

	code, resp = do(t, h, http.MethodPut, "/api/v1/admin/products/"+product.Id, admin, "admin", `{"price":1100}`)
	require.Equal(t, http.StatusOK, code, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Equal(t, int64(1100), product.Price)
	assert.Equal(t, "Hose", product.Name)
	assert.Equal(t, int32(4), product.Stock)

	code, _ = do(t, h, http.MethodPut, "/api/v1/admin/products/"+product.Id, admin, "admin", `{"category":"furniture"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodDelete, "/api/v1/admin/products/"+product.Id, uuid.NewString(), "buyer", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, h, http.MethodDelete, "/api/v1/admin/products/"+product.Id, admin, "admin", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, h, http.MethodGet, "/api/v1/products/"+product.Id, "", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, http.MethodDelete, "/api/v1/admin/products/"+product.Id, admin, "admin", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGateway_Identity(t *testing.T) {
	defer goleak.VerifyNone(t)
	h, stop := newGateway(t)
	defer stop()

	code, resp := do(t, h, http.MethodGet, "/api/v1/cart", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHENTICATED", resp.Code)

	code, _ = do(t, h, http.MethodPost, "/api/v1/admin/products", uuid.NewString(), "buyer", `{"name":"x","category":"seed"}`)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestGateway_BadBody(t *testing.T) {
	defer goleak.VerifyNone(t)
	h, stop := newGateway(t)
	defer stop()

	code, resp := do(t, h, http.MethodPost, "/api/v1/orders", uuid.NewString(), "buyer", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ARGUMENT", resp.Code)
}

func TestGateway_Health(t *testing.T) {
	h := (&Handler{log: logger.Discard(), ready: func() bool { return false }}).Routes()

	code, _ := do(t, h, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodGet, "/readyz", "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

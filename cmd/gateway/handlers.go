package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cartv1 "github.com/dwikikusuma/shoping-checkout/api/cartv1"
	catalogv1 "github.com/dwikikusuma/shoping-checkout/api/catalogv1"
	checkoutv1 "github.com/dwikikusuma/shoping-checkout/api/checkoutv1"
	orderv1 "github.com/dwikikusuma/shoping-checkout/api/orderv1"
	"github.com/dwikikusuma/shoping-checkout/pkg/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-User-Role"
)

type Handler struct {
	catalog  catalogv1.CatalogServiceClient
	cart     cartv1.CartServiceClient
	checkout checkoutv1.CheckoutServiceClient
	orders   orderv1.OrderServiceClient
	log      *slog.Logger
	// ready reports whether the api behind the gateway is reachable.
	ready func() bool
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if h.ready != nil && !h.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{id}", h.GetProduct)

		r.Post("/admin/products", h.CreateProduct)
		r.Put("/admin/products/{id}", h.UpdateProduct)
		r.Delete("/admin/products/{id}", h.DeleteProduct)
		r.Post("/admin/products/{id}/stock", h.AdjustStock)

		r.Get("/cart", h.GetCart)
		r.Post("/cart", h.AddItem)
		r.Put("/cart/{itemId}", h.UpdateItem)
		r.Delete("/cart/{itemId}", h.RemoveItem)

		r.Get("/checkout/quote", h.Quote)

		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.GetOrder)
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// outgoing forwards the caller identity resolved by the upstream auth layer.
func outgoing(r *http.Request) context.Context {
	userID := strings.TrimSpace(r.Header.Get(headerUserID))
	role := strings.TrimSpace(r.Header.Get(headerRole))
	if userID == "" || role == "" {
		return r.Context()
	}
	return identity.OutgoingContext(r.Context(), identity.Identity{UserID: userID, Role: identity.Role(strings.ToLower(role))})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalog.GetProduct(outgoing(r), &catalogv1.GetProductRequest{Id: chi.URLParam(r, "id")})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalogv1.CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.catalog.CreateProduct(outgoing(r), &req)
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Product)
}

type adjustStockBody struct {
	Delta int32 `json:"delta"`
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var body adjustStockBody
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.catalog.AdjustStock(outgoing(r), &catalogv1.AdjustStockRequest{
		Id:    chi.URLParam(r, "id"),
		Delta: body.Delta,
	})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalogv1.UpdateProductRequest
	if !decode(w, r, &req) {
		return
	}
	req.Id = chi.URLParam(r, "id")
	resp, err := h.catalog.UpdateProduct(outgoing(r), &req)
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.DeleteProduct(outgoing(r), &catalogv1.DeleteProductRequest{Id: chi.URLParam(r, "id")}); err != nil {
		writeGRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.GetCart(outgoing(r), &cartv1.GetCartRequest{})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cartv1.AddItemRequest
	if !decode(w, r, &req) {
		return
	}
	cart, err := h.cart.AddItem(outgoing(r), &req)
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

type updateItemBody struct {
	Quantity int32 `json:"quantity"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var body updateItemBody
	if !decode(w, r, &body) {
		return
	}
	cart, err := h.cart.UpdateItem(outgoing(r), &cartv1.UpdateItemRequest{
		ItemId:   chi.URLParam(r, "itemId"),
		Quantity: body.Quantity,
	})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	resp, err := h.cart.RemoveItem(outgoing(r), &cartv1.RemoveItemRequest{ItemId: chi.URLParam(r, "itemId")})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checkout.Quote(outgoing(r), &checkoutv1.QuoteRequest{})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutv1.PlaceOrderRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.checkout.PlaceOrder(outgoing(r), &req)
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	resp, err := h.orders.ListOrders(outgoing(r), &orderv1.ListOrdersRequest{})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(outgoing(r), &orderv1.GetOrderRequest{Id: chi.URLParam(r, "id")})
	if err != nil {
		writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

package domain

import "time"

// QuoteLine compares a cart line with the current catalog state.
type QuoteLine struct {
	LineID        string
	ProductID     string
	Name          string
	Quantity      int32
	PriceSnapshot int64
	CurrentPrice  int64
	Available     int32
	InStock       bool
	LineTotal     int64
}

// Quote is a read-only preview of what PlaceOrder would do. Totals use the
// snapshot prices, which is what the order will be charged.
type Quote struct {
	Lines     []QuoteLine
	Total     int64
	Orderable bool
}

type OrderPlacedLine struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Price     int64  `json:"price"`
}

// OrderPlaced is published once an order has been committed.
type OrderPlaced struct {
	OrderID         string            `json:"order_id"`
	OwnerID         string            `json:"owner_id"`
	Lines           []OrderPlacedLine `json:"lines"`
	Total           int64             `json:"total"`
	ShippingAddress string            `json:"shipping_address"`
	PlacedAt        time.Time         `json:"placed_at"`
}

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var ErrOrderNotFound = apperr.New(apperr.ErrNotFound, "order not found")

// Line is an order line. Price is the cart snapshot price, not the catalog
// price at checkout time.
type Line struct {
	ProductID string
	Quantity  int32
	Price     int64
}

func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.Price
}

// Order is immutable once persisted.
type Order struct {
	ID              string
	OwnerID         string
	Lines           []Line
	Total           int64
	Status          Status
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPending builds the order for a checked-out cart. total must equal the
// sum of the line subtotals.
func NewPending(ownerID, shippingAddress string, lines []Line, total int64, now time.Time) (Order, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return Order{}, apperr.Invalid("shipping address is required")
	}
	if len(lines) == 0 {
		return Order{}, errors.New("order has no lines")
	}

	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	if sum != total {
		return Order{}, errors.New("order total does not match its lines")
	}

	out := make([]Line, len(lines))
	copy(out, lines)

	return Order{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Lines:           out,
		Total:           total,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Clone returns a copy that shares no line storage with o.
func (o Order) Clone() Order {
	out := o
	out.Lines = make([]Line, len(o.Lines))
	copy(out.Lines, o.Lines)
	return out
}

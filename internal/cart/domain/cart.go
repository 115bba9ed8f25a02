package domain

import (
	"math"
	"time"

	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"github.com/google/uuid"
)

var (
	ErrCartNotFound = apperr.New(apperr.ErrNotFound, "cart not found")
	ErrLineNotFound = apperr.New(apperr.ErrNotFound, "cart item not found")
	// ErrCartConflict is returned by a store when the cart was changed by
	// someone else since it was read.
	ErrCartConflict = apperr.New(apperr.ErrConflict, "cart was modified concurrently")
)

// Line is one product entry of a cart. PriceSnapshot is the product price at
// the moment the line was created and never changes afterwards.
type Line struct {
	ID            string
	ProductID     string
	Quantity      int32
	PriceSnapshot int64
}

func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.PriceSnapshot
}

type Cart struct {
	ID        string
	OwnerID   string
	Lines     []Line
	Total     int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns an unsaved empty cart for ownerID. Version 0 tells the store
// to insert it.
func New(ownerID string, now time.Time) Cart {
	return Cart{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) indexOf(lineID string) int {
	for i, l := range c.Lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func (c Cart) Line(lineID string) (Line, bool) {
	if i := c.indexOf(lineID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// LineForProduct returns the line holding productID, if any.
func (c Cart) LineForProduct(productID string) (Line, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// AddLine merges quantity into the existing line for productID, keeping its
// snapshot, or appends a new line priced at price.
func (c *Cart) AddLine(productID string, quantity int32, price int64, now time.Time) (Line, error) {
	if quantity < 1 {
		return Line{}, apperr.Invalid("quantity must be at least 1, got %d", quantity)
	}

	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if int64(c.Lines[i].Quantity)+int64(quantity) > math.MaxInt32 {
			return Line{}, apperr.Invalid("quantity too large")
		}
		c.Lines[i].Quantity += quantity
		c.touch(now)
		return c.Lines[i], nil
	}

	l := Line{
		ID:            uuid.NewString(),
		ProductID:     productID,
		Quantity:      quantity,
		PriceSnapshot: price,
	}
	c.Lines = append(c.Lines, l)
	c.touch(now)
	return l, nil
}

func (c *Cart) SetQuantity(lineID string, quantity int32, now time.Time) (Line, error) {
	if quantity < 1 {
		return Line{}, apperr.Invalid("quantity must be at least 1, got %d", quantity)
	}
	i := c.indexOf(lineID)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	c.Lines[i].Quantity = quantity
	c.touch(now)
	return c.Lines[i], nil
}

func (c *Cart) RemoveLine(lineID string, now time.Time) (Line, error) {
	i := c.indexOf(lineID)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	removed := c.Lines[i]
	c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
	c.touch(now)
	return removed, nil
}

// Recompute sets Total from the lines.
func (c *Cart) Recompute() {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	c.Total = total
}

func (c *Cart) touch(now time.Time) {
	c.Recompute()
	c.UpdatedAt = now
}

// Clone returns a copy that shares no line storage with c.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = make([]Line, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}

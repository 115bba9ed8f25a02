package domain

import "time"

// ProductSummary is the display data of the product behind a line. It is
// zero when the product no longer exists.
type ProductSummary struct {
	ID    string
	Name  string
	Price int64
	Image string
	Stock int32
}

type LineView struct {
	Line
	Product ProductSummary
}

// CartView is a cart with the product summaries resolved for display.
type CartView struct {
	ID        string
	OwnerID   string
	Lines     []LineView
	Total     int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemoveResult reports the state of the cart after a line was removed.
type RemoveResult struct {
	CartID         string
	RemovedLineID  string
	RemainingLines int
	NewTotal       int64
}

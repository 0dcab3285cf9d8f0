package service

import "errors"

var ErrNotFound = errors.New("not found")

// Invariant violations. These mean corrupted preconditions, not user error;
// they abort the enclosing transaction.
var (
	ErrNoBatches         = errors.New("product has no batches")
	ErrStockExhausted    = errors.New("no stock units for in-stock product")
	ErrInsufficientUnits = errors.New("fewer stock units than requested")
)

// Rejected requests.
var (
	ErrZeroAdjustment    = errors.New("stock adjustment diff must be non-zero")
	ErrNoItems           = errors.New("no items")
	ErrNoFailedItems     = errors.New("no items in payment failed status")
	ErrAlreadyCheckedOut = errors.New("cart already checked out")
)

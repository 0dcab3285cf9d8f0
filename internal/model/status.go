package model

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the fulfillment state of a cart line item.
type Status string

const (
	StatusCart           Status = "cart"
	StatusUnfunded       Status = "unfunded"
	StatusPaymentPending Status = "payment_pending"
	StatusPaymentFailed  Status = "payment_failed"
	StatusWaiting        Status = "waiting"
	StatusInProcess      Status = "in_process"
	StatusBeingPacked    Status = "being_packed"
	StatusShipped        Status = "shipped"
	StatusCancelled      Status = "cancelled"
	StatusAbandoned      Status = "abandoned"
)

// StatusSpec declares everything the lifecycle needs to know about one
// status. A status with no successors is final.
type StatusSpec struct {
	Description    string
	PaymentDue     bool
	IncludeInTotal bool
	Next           []Status
}

// statusTable is the authoritative transition graph. States and edges are
// data; transition checks are set membership, nothing more.
var statusTable = map[Status]StatusSpec{
	StatusCart: {
		Description:    "in cart",
		IncludeInTotal: true,
		Next:           []Status{StatusUnfunded, StatusPaymentPending, StatusCancelled},
	},
	StatusUnfunded: {
		Description:    "campaign not yet funded",
		IncludeInTotal: true,
		Next:           []Status{StatusPaymentPending, StatusCancelled},
	},
	StatusPaymentPending: {
		Description:    "payment pending",
		PaymentDue:     true,
		IncludeInTotal: true,
		Next:           []Status{StatusWaiting, StatusInProcess, StatusPaymentFailed, StatusCancelled},
	},
	StatusPaymentFailed: {
		Description:    "payment failed",
		PaymentDue:     true,
		IncludeInTotal: true,
		Next:           []Status{StatusPaymentPending, StatusWaiting, StatusInProcess, StatusAbandoned, StatusCancelled},
	},
	StatusWaiting: {
		Description:    "waiting on production",
		IncludeInTotal: true,
		Next:           []Status{StatusInProcess, StatusBeingPacked, StatusShipped, StatusCancelled},
	},
	StatusInProcess: {
		Description:    "in process",
		IncludeInTotal: true,
		Next:           []Status{StatusBeingPacked, StatusShipped, StatusCancelled},
	},
	StatusBeingPacked: {
		Description:    "being packed",
		IncludeInTotal: true,
		Next:           []Status{StatusShipped, StatusCancelled},
	},
	StatusShipped: {
		Description:    "shipped",
		IncludeInTotal: true,
	},
	StatusCancelled: {
		Description: "cancelled",
	},
	StatusAbandoned: {
		Description: "abandoned",
	},
}

// Statuses returns every known status. Order is unspecified.
func Statuses() []Status {
	out := make([]Status, 0, len(statusTable))
	for s := range statusTable {
		out = append(out, s)
	}
	return out
}

func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

func (s Status) Spec() StatusSpec {
	return statusTable[s]
}

func (s Status) PaymentDue() bool {
	return statusTable[s].PaymentDue
}

func (s Status) IncludeInTotal() bool {
	return statusTable[s].IncludeInTotal
}

// Final is derived: a status is terminal iff it has no valid successors.
func (s Status) Final() bool {
	return len(statusTable[s].Next) == 0
}

// CanTransition reports whether s may move to next. Re-asserting the
// current status is always allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, n := range statusTable[s].Next {
		if n == next {
			return true
		}
	}
	return false
}

// Transition validates the move and returns the new status, or
// ErrInvalidTransition.
func (s Status) Transition(next Status) (Status, error) {
	if !next.Valid() {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDeclined is the gateway's recoverable failure: the charge was refused,
// nothing was captured.
var ErrDeclined = errors.New("payment declined")

type Authorization struct {
	TransactionID string
	Amount        decimal.Decimal
}

// Gateway is the opaque payment-processor boundary. Implementations either
// return an authorization or ErrDeclined; any other error is transport
// trouble and aborts the enclosing operation.
type Gateway interface {
	Authorize(ctx context.Context, amount decimal.Decimal, descriptor string) (*Authorization, error)
}

// Mock approves everything unless told to decline. Transaction ids are
// fresh UUIDs, like the real processor's opaque references.
type Mock struct {
	mu      sync.Mutex
	decline bool
	charges []Authorization
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Decline(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decline = v
}

func (m *Mock) Authorize(_ context.Context, amount decimal.Decimal, _ string) (*Authorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decline {
		return nil, ErrDeclined
	}
	auth := Authorization{TransactionID: uuid.NewString(), Amount: amount}
	m.charges = append(m.charges, auth)
	return &auth, nil
}

// Charges returns every approved authorization, for assertions.
func (m *Mock) Charges() []Authorization {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Authorization, len(m.charges))
	copy(out, m.charges)
	return out
}

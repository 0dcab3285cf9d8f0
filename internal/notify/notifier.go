package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier is the outbound side-effect channel for settlement events. Email
// composition and delivery live behind it, outside this service.
type Notifier interface {
	// PaymentRetryNotice schedules a "fix your card" notice after a
	// declined capture.
	PaymentRetryNotice(ctx context.Context, orderID uint64) error
}

// LogNotifier records notices in the structured log. Stands in until a
// mailer is wired up.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) PaymentRetryNotice(_ context.Context, orderID uint64) error {
	n.Log.Info().Uint64("order_id", orderID).Msg("payment retry notice scheduled")
	return nil
}

// Recorder captures notices for tests.
type Recorder struct {
	Orders []uint64
}

func (r *Recorder) PaymentRetryNotice(_ context.Context, orderID uint64) error {
	r.Orders = append(r.Orders, orderID)
	return nil
}

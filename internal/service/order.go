package service

import (
	"context"
	"errors"

	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository"
	"gorm.io/gorm"
)

// OrderReader serves the read side of the web layer: orders with derived
// amounts, nothing mutable.
type OrderReader interface {
	Get(ctx context.Context, orderID uint64) (*model.Order, error)
}

type orderReader struct {
	store repository.Store
}

func NewOrderReader(store repository.Store) OrderReader {
	return &orderReader{store: store}
}

func (s *orderReader) Get(ctx context.Context, orderID uint64) (*model.Order, error) {
	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

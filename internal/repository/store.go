package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store is the persistence port for the reservation core. Every core
// operation runs inside InTx: lock-sensitive reads (LockForProduct,
// LockAvailable, LockLiveOldest) are only meaningful within an active
// transaction, where the row locks they take are held until commit.
type Store interface {
	// InTx runs fn inside one transaction. The Store passed to fn must be
	// used for all reads and writes; the transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error

	Projects() ProjectRepository
	Products() ProductRepository
	Batches() BatchRepository
	StockUnits() StockUnitRepository
	Carts() CartRepository
	Orders() OrderRepository
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Projects() ProjectRepository   { return &projectRepository{db: s.db} }
func (s *gormStore) Products() ProductRepository   { return &productRepository{db: s.db} }
func (s *gormStore) Batches() BatchRepository      { return &batchRepository{db: s.db} }
func (s *gormStore) StockUnits() StockUnitRepository { return &stockUnitRepository{db: s.db} }
func (s *gormStore) Carts() CartRepository         { return &cartRepository{db: s.db} }
func (s *gormStore) Orders() OrderRepository       { return &orderRepository{db: s.db} }

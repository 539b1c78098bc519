// Package store is the Postgres persistence layer. Queries are handwritten
// pgx statements; services consume them through narrow interfaces so tests
// can substitute in-memory fakes.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Product is a catalog row.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cart is the cart row. The service runs a single active cart selected by
// slug at bootstrap; nothing in this layer assumes there is only one.
type Cart struct {
	ID        uuid.UUID
	Slug      string
	CreatedAt time.Time
}

// CartItem is a cart line with its product embedded for display. There is at
// most one row per (cart, product); the unique constraint backs the
// add-or-increment rule.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cartId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	Product   Product   `json:"product"`
}

// Store executes queries against a pgx pool.
type Store struct {
	Pool *pgxpool.Pool
}

// New constructs a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

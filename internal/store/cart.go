package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EnsureCart loads or creates the cart row for the given slug. Called once at
// bootstrap; the returned id is the serialization anchor for all cart writes.
func (s *Store) EnsureCart(ctx context.Context, slug string) (Cart, error) {
	var c Cart
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO carts (slug) VALUES ($1)
		 ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		 RETURNING id, slug, created_at`,
		slug,
	).Scan(&c.ID, &c.Slug, &c.CreatedAt)
	if err != nil {
		return Cart{}, fmt.Errorf("ensure cart %q: %w", slug, err)
	}
	return c, nil
}

// ListCartItems returns all items for the cart with product data embedded.
func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
		        p.id, p.name, p.price, p.created_at
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at, ci.id`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var result []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.ProductID, &it.Quantity,
			&it.Product.ID, &it.Product.Name, &it.Product.Price, &it.Product.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// UpsertCartItem inserts a quantity-1 line for the product or increments the
// existing one. The ON CONFLICT arm is the atomic find-or-create step: two
// concurrent adds of the same product race on the (cart_id, product_id)
// unique index and both land on the same row.
func (s *Store) UpsertCartItem(ctx context.Context, cartID, productID uuid.UUID) (CartItem, error) {
	var it CartItem
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (cart_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + 1
		 RETURNING id, cart_id, product_id, quantity`,
		cartID, productID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if err != nil {
		return CartItem{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return it, nil
}

// UpdateCartItemQty sets an item's quantity directly. pgx.ErrNoRows
// propagates when the item does not exist.
func (s *Store) UpdateCartItemQty(ctx context.Context, itemID uuid.UUID, qty int32) (CartItem, error) {
	var it CartItem
	err := s.Pool.QueryRow(ctx,
		`UPDATE cart_items SET quantity = $2 WHERE id = $1
		 RETURNING id, cart_id, product_id, quantity`,
		itemID, qty,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if err != nil {
		return CartItem{}, err
	}
	return it, nil
}

// DeleteCartItem removes one item. Returns pgx.ErrNoRows when nothing matched.
func (s *Store) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteCartItems removes every item in the cart. Deleting an empty set is
// valid, so this never reports not-found.
func (s *Store) DeleteCartItems(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("reset cart: %w", err)
	}
	return nil
}

// Package cart owns the single shared cart: add-or-increment, direct quantity
// set, removal, and reset. All writes funnel through the store's uniqueness
// constraint so concurrent mutations stay serialized.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/warung-api/internal/events"
	"github.com/noah-isme/warung-api/internal/obs"
	"github.com/noah-isme/warung-api/internal/pricing"
	"github.com/noah-isme/warung-api/internal/store"
)

// ErrProductNotFound indicates the product id did not resolve in the catalog.
var ErrProductNotFound = errors.New("product not found")

// ErrItemNotFound indicates the cart item does not exist. Removal callers may
// treat this as an idempotent failure rather than a fatal one.
var ErrItemNotFound = errors.New("cart item not found")

// ErrInvalidQuantity is returned when a quantity below 1 is requested.
// Decrementing to zero is rejected, never converted into a removal.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Queries is the slice of the store this service needs.
type Queries interface {
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, error)
	UpsertCartItem(ctx context.Context, cartID, productID uuid.UUID) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, itemID uuid.UUID, qty int32) (store.CartItem, error)
	DeleteCartItem(ctx context.Context, itemID uuid.UUID) error
	DeleteCartItems(ctx context.Context, cartID uuid.UUID) error
}

// Snapshot is a point-in-time view of the cart, suitable for pricing.
type Snapshot struct {
	CartID uuid.UUID
	Items  []store.CartItem
}

// PricingItems converts the snapshot into pricing engine lines.
func (s Snapshot) PricingItems() []pricing.Item {
	items := make([]pricing.Item, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, pricing.Item{Qty: int(it.Quantity), UnitPrice: it.Product.Price})
	}
	return items
}

// Service encapsulates cart domain operations. CartID is fixed at bootstrap:
// the deployment runs exactly one active cart, and that decision lives in
// configuration, not in this package.
type Service struct {
	Q      Queries
	CartID uuid.UUID
	Events *events.Bus
}

// GetCart returns the current items with embedded product data. An empty
// cart is a valid result, never an error.
func (s *Service) GetCart(ctx context.Context) (Snapshot, error) {
	if s == nil || s.Q == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	items, err := s.Q.ListCartItems(ctx, s.CartID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load cart: %w", err)
	}
	return Snapshot{CartID: s.CartID, Items: items}, nil
}

// AddItem adds the product to the cart, incrementing the quantity when a line
// for it already exists. The underlying upsert makes the find-or-create step
// atomic with respect to concurrent callers.
func (s *Service) AddItem(ctx context.Context, productID string) (store.CartItem, error) {
	if s == nil || s.Q == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	pID, err := uuid.Parse(productID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse product id %q: %w", productID, ErrProductNotFound)
	}
	product, err := s.Q.GetProduct(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrProductNotFound
		}
		obs.ObserveCartMutation("add", err)
		return store.CartItem{}, err
	}
	item, err := s.Q.UpsertCartItem(ctx, s.CartID, pID)
	obs.ObserveCartMutation("add", err)
	if err != nil {
		return store.CartItem{}, err
	}
	item.Product = product
	s.emit(ctx, events.TopicItemAdded, map[string]any{
		"itemId":    item.ID.String(),
		"productId": pID.String(),
		"quantity":  item.Quantity,
	})
	return item, nil
}

// UpdateQuantity sets an item's quantity directly. Quantities below 1 or
// beyond the stored column's int32 range are rejected and the cart is left
// untouched; the bound check must precede the narrowing conversion or an
// oversized value would silently wrap.
func (s *Service) UpdateQuantity(ctx context.Context, itemID string, qty int) (store.CartItem, error) {
	if s == nil || s.Q == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	if qty < 1 {
		return store.CartItem{}, fmt.Errorf("quantity %d is below 1: %w", qty, ErrInvalidQuantity)
	}
	if qty > math.MaxInt32 {
		return store.CartItem{}, fmt.Errorf("quantity %d exceeds the maximum %d: %w", qty, math.MaxInt32, ErrInvalidQuantity)
	}
	iID, err := uuid.Parse(itemID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse item id %q: %w", itemID, ErrItemNotFound)
	}
	item, err := s.Q.UpdateCartItemQty(ctx, iID, int32(qty))
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrItemNotFound
	}
	obs.ObserveCartMutation("update", err)
	if err != nil {
		return store.CartItem{}, err
	}
	s.emit(ctx, events.TopicQuantityChanged, map[string]any{
		"itemId":   item.ID.String(),
		"quantity": item.Quantity,
	})
	return item, nil
}

// RemoveItem deletes the item from the cart.
func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	iID, err := uuid.Parse(itemID)
	if err != nil {
		return fmt.Errorf("parse item id %q: %w", itemID, ErrItemNotFound)
	}
	err = s.Q.DeleteCartItem(ctx, iID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrItemNotFound
	}
	obs.ObserveCartMutation("remove", err)
	if err != nil {
		return err
	}
	s.emit(ctx, events.TopicItemRemoved, map[string]any{"itemId": iID.String()})
	return nil
}

// Reset deletes every item in the cart. The cart row itself persists.
// Resetting an already empty cart succeeds.
func (s *Service) Reset(ctx context.Context) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	err := s.Q.DeleteCartItems(ctx, s.CartID)
	obs.ObserveCartMutation("reset", err)
	if err != nil {
		return err
	}
	s.emit(ctx, events.TopicCartReset, map[string]any{"cartId": s.CartID.String()})
	return nil
}

func (s *Service) emit(ctx context.Context, topic string, payload any) {
	if s.Events == nil {
		return
	}
	_ = s.Events.Emit(ctx, topic, payload)
}

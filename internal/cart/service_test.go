package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/warung-api/internal/store"
)

type fakeQueries struct {
	mu       sync.Mutex
	products map[uuid.UUID]store.Product
	items    map[uuid.UUID]store.CartItem
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		products: map[uuid.UUID]store.Product{},
		items:    map[uuid.UUID]store.CartItem{},
	}
}

func (f *fakeQueries) addProduct(name string, price int64) store.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := store.Product{ID: uuid.New(), Name: name, Price: price}
	f.products[p.ID] = p
	return p
}

func (f *fakeQueries) GetProduct(_ context.Context, id uuid.UUID) (store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeQueries) ListCartItems(_ context.Context, cartID uuid.UUID) ([]store.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.CartItem
	for _, it := range f.items {
		if it.CartID == cartID {
			it.Product = f.products[it.ProductID]
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeQueries) UpsertCartItem(_ context.Context, cartID, productID uuid.UUID) (store.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, it := range f.items {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity++
			f.items[id] = it
			return it, nil
		}
	}
	it := store.CartItem{ID: uuid.New(), CartID: cartID, ProductID: productID, Quantity: 1}
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeQueries) UpdateCartItemQty(_ context.Context, itemID uuid.UUID, qty int32) (store.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return store.CartItem{}, pgx.ErrNoRows
	}
	it.Quantity = qty
	f.items[itemID] = it
	return it, nil
}

func (f *fakeQueries) DeleteCartItem(_ context.Context, itemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[itemID]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeQueries) DeleteCartItems(_ context.Context, cartID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, it := range f.items {
		if it.CartID == cartID {
			delete(f.items, id)
		}
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeQueries) {
	t.Helper()
	q := newFakeQueries()
	return &Service{Q: q, CartID: uuid.New()}, q
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Kopi Gayo 250g", 85000)

	first, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)
	require.EqualValues(t, 1, first.Quantity)

	second, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.EqualValues(t, 2, second.Quantity)

	snap, err := svc.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.AddItem(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateQuantityRejectsBelowOne(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Teh Melati", 12000)
	item, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)

	for _, qty := range []int{0, -1, -50} {
		_, err := svc.UpdateQuantity(context.Background(), item.ID.String(), qty)
		require.ErrorIs(t, err, ErrInvalidQuantity, "qty %d", qty)
	}

	// The rejected update must not have touched the line.
	snap, err := svc.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.EqualValues(t, 1, snap.Items[0].Quantity)
}

func TestUpdateQuantityRejectsValuesBeyondInt32(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Kecap Manis 275ml", 15500)
	item, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)

	// 2^32+1 would narrow to 1 and report success if converted unchecked.
	for _, qty := range []int{math.MaxInt32 + 1, 1<<32 + 1} {
		_, err := svc.UpdateQuantity(context.Background(), item.ID.String(), qty)
		require.ErrorIs(t, err, ErrInvalidQuantity, "qty %d", qty)
	}

	snap, err := svc.GetCart(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, snap.Items[0].Quantity)

	updated, err := svc.UpdateQuantity(context.Background(), item.ID.String(), math.MaxInt32)
	require.NoError(t, err)
	require.EqualValues(t, math.MaxInt32, updated.Quantity)
}

func TestUpdateQuantitySets(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Gula Aren", 25000)
	item, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(context.Background(), item.ID.String(), 7)
	require.NoError(t, err)
	require.EqualValues(t, 7, updated.Quantity)
}

func TestUpdateQuantityMissingItem(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateQuantity(context.Background(), uuid.NewString(), 2)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Sambal Terasi", 18000)
	item, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(context.Background(), item.ID.String()))

	err = svc.RemoveItem(context.Background(), item.ID.String())
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestResetIsIdempotent(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Kerupuk Udang", 9000)
	_, err := svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)

	require.NoError(t, svc.Reset(context.Background()))
	require.NoError(t, svc.Reset(context.Background()))

	snap, err := svc.GetCart(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Items)
}

func TestConcurrentAddsCollapseToOneLine(t *testing.T) {
	svc, q := newTestService(t)
	p := q.addProduct("Beras Pandan Wangi 5kg", 78000)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), p.ID.String())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	snap, err := svc.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.EqualValues(t, n, snap.Items[0].Quantity)
}

func TestServiceNotConfigured(t *testing.T) {
	var svc *Service
	_, err := svc.GetCart(context.Background())
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrItemNotFound))
}

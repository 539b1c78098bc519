package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/warung-api/internal/pricing"
)

func newTestHandler(t *testing.T) (*Handler, *fakeQueries) {
	t.Helper()
	svc, q := newTestService(t)
	h := &Handler{
		Svc:      svc,
		TaxBps:   pricing.DefaultTaxRateBps,
		Currency: "IDR",
		Log:      zerolog.Nop(),
	}
	return h, q
}

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.Routes(r, nil)
	return r
}

func decodeData(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	data, ok := env["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %s", body.String())
	return data
}

func TestGetCartWithDiscountBreakdown(t *testing.T) {
	h, q := newTestHandler(t)
	p := q.addProduct("Kopi Gayo 250g", 1000)
	_, err := h.Svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)

	r := newTestRouter(h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart?discount=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec.Body)
	require.Equal(t, "IDR", data["currency"])
	items := data["items"].([]any)
	require.Len(t, items, 1)

	bd := data["pricing"].(map[string]any)
	require.EqualValues(t, 1000, bd["subtotal"])
	require.EqualValues(t, 100, bd["discount"])
	require.EqualValues(t, 99, bd["tax"])
	require.EqualValues(t, 999, bd["total"])
	require.EqualValues(t, 1000, bd["roundedTotal"])

	display := bd["display"].(map[string]any)
	require.Equal(t, "Rp 1.000", display["subtotal"])
}

func TestGetCartRejectsOffMenuDiscount(t *testing.T) {
	h, _ := newTestHandler(t)
	r := newTestRouter(h)

	for _, raw := range []string{"5", "20", "-1", "abc"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart?discount="+raw, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, "discount=%s", raw)
	}
}

func TestAddItemEndpoint(t *testing.T) {
	h, q := newTestHandler(t)
	p := q.addProduct("Teh Melati", 12000)
	r := newTestRouter(h)

	body := fmt.Sprintf(`{"productId":%q}`, p.ID.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeData(t, rec.Body)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	require.EqualValues(t, 1, item["quantity"])
	require.Equal(t, "Rp 12.000", item["unitPriceDisplay"])
}

func TestAddItemUnknownProductEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"productId":"11111111-2222-3333-4444-555555555555"}`)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", body))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "PRODUCT_NOT_FOUND")
}

func TestUpdateItemRejectsOutOfRangeQuantity(t *testing.T) {
	h, q := newTestHandler(t)
	p := q.addProduct("Gula Aren", 25000)
	item, err := h.Svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)
	r := newTestRouter(h)

	for _, body := range []string{`{"quantity":0}`, `{"quantity":4294967297}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/cart/items/"+item.ID.String(), bytes.NewBufferString(body))
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.Contains(t, rec.Body.String(), "INVALID_QUANTITY", body)
	}
}

func TestRemoveThenResetEndpoints(t *testing.T) {
	h, q := newTestHandler(t)
	p1 := q.addProduct("Sambal Terasi", 18000)
	p2 := q.addProduct("Kerupuk Udang", 9000)
	item, err := h.Svc.AddItem(context.Background(), p1.ID.String())
	require.NoError(t, err)
	_, err = h.Svc.AddItem(context.Background(), p2.ID.String())
	require.NoError(t, err)
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cart/items/"+item.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeData(t, rec.Body)["items"], 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeData(t, rec.Body)["items"])
}

func TestRoutesWrapMutationsOnly(t *testing.T) {
	h, q := newTestHandler(t)
	p := q.addProduct("Santan Instan 200ml", 8000)

	var wrapped []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped = append(wrapped, r.Method+" "+r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
	r := chi.NewRouter()
	h.Routes(r, mw)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, wrapped)

	body := fmt.Sprintf(`{"productId":%q}`, p.ID.String())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"POST /cart/items"}, wrapped)
}

func TestQuoteEndpoint(t *testing.T) {
	h, q := newTestHandler(t)
	p := q.addProduct("Beras Pandan Wangi 5kg", 78000)
	_, err := h.Svc.AddItem(context.Background(), p.ID.String())
	require.NoError(t, err)
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/quote", bytes.NewBufferString(`{"discount":15}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	bd := decodeData(t, rec.Body)
	// 78000 - 11700 = 66300, tax 7293, total 73593 rounds to 73600.
	require.EqualValues(t, 78000, bd["subtotal"])
	require.EqualValues(t, 11700, bd["discount"])
	require.EqualValues(t, 7293, bd["tax"])
	require.EqualValues(t, 73600, bd["roundedTotal"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/quote", bytes.NewBufferString(`{"discount":30}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

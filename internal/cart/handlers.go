package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/warung-api/internal/common"
	"github.com/noah-isme/warung-api/internal/money"
	"github.com/noah-isme/warung-api/internal/obs"
	"github.com/noah-isme/warung-api/internal/pricing"
)

// Handler exposes the cart over HTTP. Every read response carries the full
// cart plus a freshly computed price breakdown; mutations respond with the
// refreshed cart so clients never have to re-fetch.
type Handler struct {
	Svc      *Service
	TaxBps   int
	Currency string
	Log      zerolog.Logger
}

// Routes mounts the cart endpoints on the router. mutation wraps the
// state-changing endpoints (idempotency in production); nil mounts them bare.
// Reads and quotes stay outside it.
func (h *Handler) Routes(r chi.Router, mutation func(http.Handler) http.Handler) {
	r.Get("/cart", h.Get)
	r.Post("/cart/quote", h.Quote)
	r.Group(func(g chi.Router) {
		if mutation != nil {
			g.Use(mutation)
		}
		g.Post("/cart/items", h.AddItem)
		g.Patch("/cart/items/{itemID}", h.UpdateItem)
		g.Delete("/cart/items/{itemID}", h.RemoveItem)
		g.Post("/cart/reset", h.Reset)
	})
}

type itemView struct {
	ID               string `json:"id"`
	ProductID        string `json:"productId"`
	Name             string `json:"name"`
	UnitPrice        int64  `json:"unitPrice"`
	UnitPriceDisplay string `json:"unitPriceDisplay"`
	Quantity         int32  `json:"quantity"`
	LineTotal        int64  `json:"lineTotal"`
	LineTotalDisplay string `json:"lineTotalDisplay"`
}

type breakdownView struct {
	pricing.Breakdown
	Display struct {
		Subtotal     string `json:"subtotal"`
		Discount     string `json:"discount"`
		Tax          string `json:"tax"`
		RoundedTotal string `json:"roundedTotal"`
	} `json:"display"`
}

type cartView struct {
	ID       string        `json:"id"`
	Currency string        `json:"currency"`
	Items    []itemView    `json:"items"`
	Pricing  breakdownView `json:"pricing"`
}

func (h *Handler) render(snap Snapshot, d pricing.Discount) cartView {
	items := make([]itemView, 0, len(snap.Items))
	for _, it := range snap.Items {
		line := money.MulQty(it.Product.Price, int(it.Quantity))
		items = append(items, itemView{
			ID:               it.ID.String(),
			ProductID:        it.ProductID.String(),
			Name:             it.Product.Name,
			UnitPrice:        it.Product.Price,
			UnitPriceDisplay: money.Format(it.Product.Price),
			Quantity:         it.Quantity,
			LineTotal:        line,
			LineTotalDisplay: money.Format(line),
		})
	}
	bd := pricing.Compute(snap.PricingItems(), d, h.TaxBps)
	obs.ObservePricingQuote(int(d))
	view := breakdownView{Breakdown: bd}
	view.Display.Subtotal = money.Format(bd.Subtotal)
	view.Display.Discount = money.Format(bd.Discount)
	view.Display.Tax = money.Format(bd.Tax)
	view.Display.RoundedTotal = money.Format(bd.RoundedTotal)
	return cartView{
		ID:       snap.CartID.String(),
		Currency: h.Currency,
		Items:    items,
		Pricing:  view,
	}
}

func discountFromQuery(r *http.Request) (pricing.Discount, error) {
	raw := r.URL.Query().Get("discount")
	if raw == "" {
		return pricing.DiscountNone, nil
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return pricing.DiscountNone, err
	}
	return pricing.ParseDiscount(pct)
}

// Get handles GET /cart. The optional discount query parameter selects one of
// the menu percentages; anything off the menu is a client error.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := discountFromQuery(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DISCOUNT", "discount must be one of 0, 10 or 15", nil)
		return
	}
	snap, err := h.Svc.GetCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(snap, d)})
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// AddItem handles POST /cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "productId is required", nil)
		return
	}
	if _, err := h.Svc.AddItem(r.Context(), req.ProductID); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.Svc.GetCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": h.render(snap, pricing.DiscountNone)})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PATCH /cart/items/{itemID}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "quantity is required", nil)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if _, err := h.Svc.UpdateQuantity(r.Context(), itemID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.Svc.GetCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(snap, pricing.DiscountNone)})
}

// RemoveItem handles DELETE /cart/items/{itemID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.Svc.GetCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(snap, pricing.DiscountNone)})
}

// Reset handles POST /cart/reset. It always succeeds on an existing cart,
// empty or not.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := h.Svc.GetCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(snap, pricing.DiscountNone)})
}

type quoteRequest struct {
	Discount int `json:"discount"`
}

// Quote handles POST /cart/quote: price the current cart under a discount
// without touching it. Useful for previewing the menu options client-side.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "discount is required", nil)
		return
	}
	d, err := pricing.ParseDiscount(req.Discount)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DISCOUNT", "discount must be one of 0, 10 or 15", nil)
		return
	}
	snap, err := h.Svc.GetCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view := h.render(snap, d)
	common.JSON(w, http.StatusOK, map[string]any{"data": view.Pricing})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "cart item not found", nil)
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be at least 1", nil)
	default:
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("cart request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

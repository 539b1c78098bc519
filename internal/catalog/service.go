// Package catalog serves the product listing: browse, case-insensitive
// substring search, detail lookup, and creation. List pages are cached in
// Redis keyed by the normalised query.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/warung-api/internal/common"
	"github.com/noah-isme/warung-api/internal/events"
	"github.com/noah-isme/warung-api/internal/money"
	"github.com/noah-isme/warung-api/internal/obs"
	"github.com/noah-isme/warung-api/internal/store"
)

// ErrProductNotFound indicates the requested product does not exist.
var ErrProductNotFound = errors.New("product not found")

type queryProvider interface {
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	ListProducts(ctx context.Context, filter string, limit, offset int32) ([]store.Product, error)
	CountProducts(ctx context.Context, filter string) (int64, error)
	CreateProduct(ctx context.Context, name string, price int64) (store.Product, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	events       *events.Bus
	validate     *validator.Validate
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	Events       *events.Bus
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		events:       cfg.Events,
		validate:     validator.New(),
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ListParams captures filters for product listing.
type ListParams struct {
	Filter string
	Page   int
	Limit  int
}

// ProductView is the public product payload.
type ProductView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"priceDisplay"`
	CreatedAt    string `json:"createdAt"`
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []ProductView
	Total int64
	Page  int
	Limit int
}

func badRequest(field, message string, err error) *common.AppError {
	appErr := common.NewAppError("INVALID_PARAM", message, http.StatusBadRequest, err)
	appErr.Details = map[string]string{"field": field}
	return appErr
}

// ParseListParams normalises raw query values into strongly typed filters.
// Matching is a case-insensitive substring test, so the filter is only
// trimmed here; the store applies the insensitivity.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Filter = strings.TrimSpace(values.Get("filter"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

type cachedList struct {
	Items []ProductView `json:"items"`
	Total int64         `json:"total"`
}

func listCacheKey(p ListParams) string {
	return fmt.Sprintf("catalog:list:%s:%d:%d", strings.ToLower(p.Filter), p.Page, p.Limit)
}

// ListProducts returns the filtered product list with pagination metadata.
// An empty or whitespace-only filter returns the full catalog.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ListResult, error) {
	key := listCacheKey(params)
	var cached cachedList
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		obs.ObserveCatalogSearch(true)
		return ListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
	}
	obs.ObserveCatalogSearch(false)

	total, err := s.queries.CountProducts(ctx, params.Filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	rows, err := s.queries.ListProducts(ctx, params.Filter, int32(params.Limit), offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toView(row))
	}
	_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetProduct returns a single product by id.
func (s *Service) GetProduct(ctx context.Context, rawID string) (ProductView, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return ProductView{}, fmt.Errorf("parse product id %q: %w", rawID, ErrProductNotFound)
	}
	row, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductView{}, ErrProductNotFound
		}
		return ProductView{}, fmt.Errorf("get product: %w", err)
	}
	return toView(row), nil
}

// CreateInput is the payload for product creation.
type CreateInput struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Price int64  `json:"price" validate:"gte=0"`
}

// CreateProduct validates and persists a new product, then drops the cached
// list pages so the next read sees it.
func (s *Service) CreateProduct(ctx context.Context, in CreateInput) (ProductView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		appErr := common.NewAppError("VALIDATION", "invalid product payload", http.StatusUnprocessableEntity, err)
		appErr.Details = validationDetails(err)
		return ProductView{}, appErr
	}
	row, err := s.queries.CreateProduct(ctx, in.Name, in.Price)
	if err != nil {
		return ProductView{}, fmt.Errorf("create product: %w", err)
	}
	_ = s.cache.Invalidate(ctx, "catalog:list:*")
	if s.events != nil {
		_ = s.events.Emit(ctx, events.TopicProductCreated, map[string]any{
			"productId": row.ID.String(),
			"name":      row.Name,
		})
	}
	return toView(row), nil
}

func toView(p store.Product) ProductView {
	return ProductView{
		ID:           p.ID.String(),
		Name:         p.Name,
		Price:        p.Price,
		PriceDisplay: money.Format(p.Price),
		CreatedAt:    p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return fields
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// likeEscaper neutralises LIKE metacharacters so a filter of "100%" matches
// the literal text instead of acting as a wildcard. Queries using the result
// must carry ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// GetProduct returns one product by id. pgx.ErrNoRows propagates when absent.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	var p Product
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, price, created_at FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	return p, err
}

// ListProducts returns products whose name contains the filter substring,
// case-insensitively, newest first. An empty filter matches everything.
func (s *Store) ListProducts(ctx context.Context, filter string, limit, offset int32) ([]Product, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, price, created_at
		 FROM products
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\')
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		escapeLike(filter), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// CountProducts counts rows matching the same filter as ListProducts.
func (s *Store) CountProducts(ctx context.Context, filter string) (int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\')`,
		escapeLike(filter),
	).Scan(&total)
	return total, err
}

// CreateProduct inserts a product and returns the stored row.
func (s *Store) CreateProduct(ctx context.Context, name string, price int64) (Product, error) {
	var p Product
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO products (name, price) VALUES ($1, $2)
		 RETURNING id, name, price, created_at`,
		name, price,
	).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

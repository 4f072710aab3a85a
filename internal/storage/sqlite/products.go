package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/recall-agent/recall/internal/core"
)

type ProductsRepo struct {
	db *sql.DB
}

func NewProductsRepo(db *sql.DB) *ProductsRepo {
	return &ProductsRepo{db: db}
}

func (r *ProductsRepo) Search(ctx context.Context, filter core.ProductFilter, limit int) ([]core.Product, error) {
	query := `SELECT id, name, category, price, description, availability, quantity FROM products WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, strings.ToLower(filter.Category))
	}
	if filter.HasMinPrice {
		query += ` AND price >= ?`
		args = append(args, filter.MinPrice)
	}
	if filter.HasMaxPrice {
		query += ` AND price <= ?`
		args = append(args, filter.MaxPrice)
	}
	if filter.Availability != "" {
		query += ` AND availability = ?`
		args = append(args, filter.Availability)
	}
	if filter.Text != "" {
		query += ` AND (name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(filter.Text) + "%"
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY price ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Description, &p.Availability, &p.Quantity); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

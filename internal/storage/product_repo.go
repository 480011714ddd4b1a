package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shop-admin/internal/model"
)

type ProductRepository struct {
	db *Database
}

func NewProductRepository(db *Database) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, data *model.ProductData) (*model.Product, error) {
	var product model.Product
	query := `
		INSERT INTO products (name, description, price, category, stock_quantity, created_by, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, description, price, category, stock_quantity, created_by, images, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		data.Name, data.Description, data.Price, data.Category, data.StockQuantity, data.CreatedBy, data.Images).
		StructScan(&product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &product, nil
}

// List returns products newest first. Category filters by exact match,
// search by case-insensitive substring over name or description; both
// compose with AND.
func (r *ProductRepository) List(ctx context.Context, filter *model.ProductFilter) ([]*model.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.category, p.stock_quantity,
		       p.created_by, u.username AS created_by_name, p.images, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN users u ON p.created_by = u.id
	`
	var conditions []string
	var args []interface{}

	if filter != nil && filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", len(args)))
	}
	if filter != nil && filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY p.created_at DESC"

	products := []*model.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `
		SELECT id, name, description, price, category, stock_quantity, created_by, images, created_at, updated_at
		FROM products WHERE id = $1
	`
	err := r.db.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// Update replaces every mutable field including the image list. The
// caller decides what the resulting image list is; created_by is never
// touched.
func (r *ProductRepository) Update(ctx context.Context, id string, data *model.ProductData) (*model.Product, error) {
	var product model.Product
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, stock_quantity = $5,
		    images = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
		RETURNING id, name, description, price, category, stock_quantity, created_by, images, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		data.Name, data.Description, data.Price, data.Category, data.StockQuantity, data.Images, id).
		StructScan(&product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

// Delete removes the row and returns it, so the caller can unlink the
// image files after the database state is gone.
func (r *ProductRepository) Delete(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `
		DELETE FROM products WHERE id = $1
		RETURNING id, name, description, price, category, stock_quantity, created_by, images, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	query := `SELECT DISTINCT category FROM products ORDER BY category`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

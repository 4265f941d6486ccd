package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
)

type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	ListPage(ctx context.Context, page models.Page) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, terms []string, limit int) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	SoftDelete(ctx context.Context, id string) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = "id, name, category, sku, COALESCE(description, ''), price, stock_quantity, image_url, nutrition_info, is_deleted, created_at, updated_at"

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var nutrition []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.SKU, &p.Description, &p.Price, &p.StockQuantity,
		&p.ImageURL, &nutrition, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(nutrition) > 0 && string(nutrition) != "null" {
		var info models.NutritionInfo
		if err := json.Unmarshal(nutrition, &info); err != nil {
			return nil, fmt.Errorf("decode nutrition info for %s: %w", p.ID, err)
		}
		p.NutritionInfo = &info
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func nutritionJSON(info *models.NutritionInfo) (any, error) {
	if info == nil {
		return nil, nil
	}
	b, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *productRepository) List(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE is_deleted = FALSE ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *productRepository) ListPage(ctx context.Context, page models.Page) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE is_deleted = FALSE").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_deleted = FALSE ORDER BY name LIMIT ? OFFSET ?",
		page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	return products, total, err
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ? AND is_deleted = FALSE", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// Search matches any term against name or category.
func (r *productRepository) Search(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	if len(terms) == 0 {
		return []models.Product{}, nil
	}

	var b strings.Builder
	b.WriteString("SELECT " + productColumns + " FROM products WHERE is_deleted = FALSE AND ")
	args := anyLike(&b, []string{"name", "category"}, terms)
	b.WriteString(" ORDER BY name LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

func (r *productRepository) Create(ctx context.Context, p *models.Product) error {
	nutrition, err := nutritionJSON(p.NutritionInfo)
	if err != nil {
		return fmt.Errorf("encode nutrition info: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO products (id, name, category, sku, description, price, stock_quantity, image_url, nutrition_info, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Category, p.SKU, p.Description, p.Price,
		p.StockQuantity, p.ImageURL, nutrition, p.CreatedAt, p.UpdatedAt); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *models.Product) error {
	nutrition, err := nutritionJSON(p.NutritionInfo)
	if err != nil {
		return fmt.Errorf("encode nutrition info: %w", err)
	}

	if _, err := r.FindByID(ctx, p.ID); err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	query := `
		UPDATE products
		SET name = ?, category = ?, sku = ?, description = ?, price = ?, stock_quantity = ?, image_url = ?, nutrition_info = ?, updated_at = ?
		WHERE id = ? AND is_deleted = FALSE`
	if _, err := r.db.ExecContext(ctx, query, p.Name, p.Category, p.SKU, p.Description, p.Price,
		p.StockQuantity, p.ImageURL, nutrition, p.UpdatedAt, p.ID); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// SoftDelete hides the product from listings but keeps it for order history.
func (r *productRepository) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE products SET is_deleted = TRUE, updated_at = ? WHERE id = ? AND is_deleted = FALSE",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"mhargick-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type productRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) domain.ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `id, name, slug, description, price, sale_price, image_url, images,
	sizes, colors, stock, sku, is_featured, is_active, category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.SalePrice, &p.ImageURL, &p.Images,
		&p.Sizes, &p.Colors, &p.Stock, &p.SKU, &p.IsFeatured, &p.IsActive, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO products (
			id, name, slug, description, price, sale_price, image_url, images,
			sizes, colors, stock, sku, is_featured, is_active, category_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.SalePrice, p.ImageURL, p.Images,
		p.Sizes, p.Colors, p.Stock, p.SKU, p.IsFeatured, p.IsActive, p.CategoryID,
	)
	return err
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	q := db(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE products SET
			name = $2, slug = $3, description = $4, price = $5, sale_price = $6,
			image_url = $7, images = $8, sizes = $9, colors = $10, stock = $11,
			sku = $12, is_featured = $13, is_active = $14, category_id = $15,
			updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.SalePrice,
		p.ImageURL, p.Images, p.Sizes, p.Colors, p.Stock,
		p.SKU, p.IsFeatured, p.IsActive, p.CategoryID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	q := db(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := db(ctx, r.pool)
	p, err := scanProduct(q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	return p, err
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	q := db(ctx, r.pool)
	p, err := scanProduct(q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	return p, err
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	q := db(ctx, r.pool)

	where := " WHERE 1=1"
	args := []any{}
	if filter.ActiveOnly {
		where += " AND p.is_active = true"
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		where += fmt.Sprintf(" AND p.category_id = (SELECT id FROM categories WHERE slug = $%d)", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		where += fmt.Sprintf(" AND p.is_featured = $%d", len(args))
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT count(*) FROM products p"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	listSQL := fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p.description, p.price, p.sale_price, p.image_url, p.images,
		       p.sizes, p.colors, p.stock, p.sku, p.is_featured, p.is_active, p.category_id,
		       p.created_at, p.updated_at
		FROM products p %s
		ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := q.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// AdjustStock applies a signed delta guarded against going negative; a
// zero-row update on an existing product means the stock was insufficient.
func (r *productRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	q := db(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0`,
		productID, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrProductNotFound
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	q := db(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT id, name, slug, description, image_url, is_active, created_at, updated_at
		FROM categories WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// --- Reviews ---

func (r *productRepository) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	q := db(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.comment, r.created_at
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *productRepository) CreateReview(ctx context.Context, rv *domain.Review) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1,$2,$3,$4,$5,now())`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment,
	)
	return err
}

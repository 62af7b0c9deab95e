package domain

import (
	"context"
	"time"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	SalePrice   *float64  `json:"salePrice,omitempty"`
	ImageURL    string    `json:"imageUrl"`
	Images      []string  `json:"images,omitempty"`
	Sizes       []string  `json:"sizes,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
	Stock       int       `json:"stock"`
	SKU         string    `json:"sku,omitempty"`
	IsFeatured  bool      `json:"isFeatured"`
	IsActive    bool      `json:"isActive"`
	CategoryID  string    `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EffectivePrice is the unit price a buyer pays right now: the sale price
// when one is set, the base price otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductFilter struct {
	Page         int
	Limit        int
	CategorySlug string
	Search       string
	Featured     *bool
	ActiveOnly   bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// AdjustStock applies a signed delta and fails with ErrInsufficientStock
	// when the result would go negative.
	AdjustStock(ctx context.Context, productID string, delta int) error

	ListCategories(ctx context.Context) ([]Category, error)

	GetReviews(ctx context.Context, productID string) ([]Review, error)
	CreateReview(ctx context.Context, r *Review) error
}
